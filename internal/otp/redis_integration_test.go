//go:build integration

package otp_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"credvault/internal/notify"
	"credvault/internal/otp"
	"credvault/internal/otp/store"
	"credvault/pkg/testutil/containers"
)

type lastMessage struct {
	mu  sync.Mutex
	msg notify.Message
}

func (l *lastMessage) Notify(_ context.Context, m notify.Message) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.msg = m
}

func TestTOTPVerifierWithRedis(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.Flush(ctx))

	sink := &lastMessage{}
	v := otp.NewTOTPVerifier(store.NewRedis(rc.Client), sink)

	require.NoError(t, v.Send(ctx, "ada@x.com"))
	sink.mu.Lock()
	body := sink.msg.Body
	sink.mu.Unlock()
	code := body[strings.LastIndex(body, " ")+1:]
	require.Len(t, code, 6)

	ok, err := v.Verify(ctx, "ada@x.com", code)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = v.Verify(ctx, "ada@x.com", code)
	require.NoError(t, err)
	require.False(t, ok)
}
