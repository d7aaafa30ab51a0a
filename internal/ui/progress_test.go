package ui

import (
	"bytes"
	"errors"
	"testing"

	"github.com/vbauerster/mpb/v8"
)

func TestProgressManagerWrite(t *testing.T) {
	var out bytes.Buffer
	pm := NewProgressManager(&out)
	logger := NewLoggerTo(pm, false, 0)

	h := pm.Register("Road")
	h.SetTotal(2)
	h.Update(1, 2, 10)

	logger.Warnf("chapter 2 is slow")

	h.Update(2, 2, 20)
	h.MarkDone()
	pm.Close()

	if _, err := pm.Write([]byte("late\n")); !errors.Is(err, mpb.ErrDone) {
		t.Fatalf("write after Close = %v, want mpb.ErrDone", err)
	}
}
