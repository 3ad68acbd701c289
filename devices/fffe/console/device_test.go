package console

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/term"

	"github.com/hexaflex/cvm/devices/testhost"
)

func TestInput(t *testing.T) {
	h := testhost.New()
	d := New(strings.NewReader("hi"), io.Discard)
	require.NoError(t, d.Startup(h))
	defer d.Shutdown()

	require.Eventually(t, func() bool { return len(h.Events()) == 4 }, time.Second, time.Millisecond)
	assert.Equal(t, []testhost.Key{
		{Down: true, Code: 'h'},
		{Down: false, Code: 'h'},
		{Down: true, Code: 'i'},
		{Down: false, Code: 'i'},
	}, h.Events())
}

func TestEscape(t *testing.T) {
	h := testhost.New()
	d := New(strings.NewReader("a\x1db"), io.Discard)
	require.NoError(t, d.Startup(h))
	defer d.Shutdown()

	require.Eventually(t, h.PoweredOff, time.Second, time.Millisecond)
	assert.Len(t, h.Events(), 2)
}

func TestOutput(t *testing.T) {
	var out bytes.Buffer
	h := testhost.New()
	d := New(strings.NewReader(""), &out)
	require.NoError(t, d.Startup(h))

	for _, c := range []byte("ok\nmore") {
		h.InB[PortOutput](c)
	}
	assert.Equal(t, "ok\n", out.String())

	require.NoError(t, d.Shutdown())
	assert.Equal(t, "ok\nmore", out.String())
}

var errWrite = errors.New("write failed")

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errWrite }

func TestShutdownFlushError(t *testing.T) {
	h := testhost.New()
	d := New(strings.NewReader(""), failWriter{})
	require.NoError(t, d.Startup(h))
	h.InB[PortOutput]('x')

	err := d.Shutdown()
	assert.Equal(t, errWrite, errors.Cause(err))
}

func TestShutdownKeepsFirstError(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "tty"))
	require.NoError(t, err)
	defer f.Close()

	h := testhost.New()
	d := New(strings.NewReader(""), failWriter{})
	require.NoError(t, d.Startup(h))
	h.InB[PortOutput]('x')

	// A regular file cannot have its terminal state restored.
	d.term = f
	d.state = &term.State{}

	err = d.Shutdown()
	assert.Equal(t, errWrite, errors.Cause(err))
	assert.Nil(t, d.state)
}
