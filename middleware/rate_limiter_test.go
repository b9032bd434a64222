package middleware

import (
	"testing"
	"time"
)

func TestTokenBucketAllow(t *testing.T) {
	tb := NewTokenBucket(10, 3)

	// 突发容量内的请求全部放行
	for i := 0; i < 3; i++ {
		if !tb.Allow() {
			t.Fatalf("第%d个突发请求应被放行", i+1)
		}
	}

	// 容量耗尽后立即拒绝
	if tb.Allow() {
		t.Error("令牌耗尽后应拒绝")
	}

	// 等待填充后恢复
	time.Sleep(150 * time.Millisecond)
	if !tb.Allow() {
		t.Error("填充后应重新放行")
	}
}
