package chromerender

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_DefaultUserAgent(t *testing.T) {
	r := New(Options{})
	require.Equal(t, DefaultUserAgent, r.opts.UserAgent)

	r = New(Options{UserAgent: "custom", ExecPath: "/usr/bin/chromium"})
	require.Equal(t, "custom", r.opts.UserAgent)
	require.Len(t, r.allocatorOptions(), len(New(Options{}).allocatorOptions())+1)
}
