package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/clipsort/internal/logger"
)

type fakePinger struct {
	failures int
	calls    int
}

func (f *fakePinger) Ping(ctx context.Context) *redis.StatusCmd {
	f.calls++
	cmd := redis.NewStatusCmd(ctx, "ping")
	if f.calls <= f.failures {
		cmd.SetErr(errors.New("connection refused"))
	} else {
		cmd.SetVal("PONG")
	}
	return cmd
}

func fastOptions() ConnectOptions {
	opts := DefaultConnectOptions("127.0.0.1:6379")
	opts.RetryInterval = time.Millisecond
	opts.MaxWait = 2 * time.Millisecond
	opts.ConnectTimeout = time.Second
	return opts
}

func TestWaitForPingRetries(t *testing.T) {
	p := &fakePinger{failures: 3}

	if err := waitForPing(context.Background(), p, fastOptions(), logger.New("error", false)); err != nil {
		t.Fatalf("waitForPing() error = %v", err)
	}
	if p.calls != 4 {
		t.Errorf("ping calls = %d, want 4", p.calls)
	}
}

func TestWaitForPingTimesOut(t *testing.T) {
	p := &fakePinger{failures: 1 << 30}
	opts := fastOptions()
	opts.ConnectTimeout = 20 * time.Millisecond

	err := waitForPing(context.Background(), p, opts, logger.New("error", false))
	if err == nil {
		t.Fatal("waitForPing() succeeded, want timeout error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConnectOptions)
	}{
		{"no addr", func(o *ConnectOptions) { o.Addr = "" }},
		{"no connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }},
		{"no retry interval", func(o *ConnectOptions) { o.RetryInterval = 0 }},
		{"no max wait", func(o *ConnectOptions) { o.MaxWait = 0 }},
		{"no ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }},
		{"negative warn threshold", func(o *ConnectOptions) { o.WarnThreshold = -1 }},
	}
	if err := fastOptions().Validate(); err != nil {
		t.Fatalf("default options invalid: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := fastOptions()
			tt.mutate(&opts)
			if err := opts.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("hunter2")

	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"authenticated", "hunter2", false},
		{"wrong password", "nope", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := fastOptions()
			opts.Addr = mr.Addr()
			opts.Password = tt.password
			if tt.wantErr {
				opts.ConnectTimeout = 50 * time.Millisecond
			}

			client, err := Connect(context.Background(), opts, logger.New("error", false))
			if tt.wantErr {
				if err == nil {
					_ = client.Close()
					t.Fatal("Connect() succeeded, want error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Connect() error = %v", err)
			}
			defer client.Close()
			if err := client.Set(context.Background(), "k", "v", 0).Err(); err != nil {
				t.Fatal(err)
			}
			if v, _ := mr.Get("k"); v != "v" {
				t.Errorf("stored value = %q, want v", v)
			}
		})
	}
}
