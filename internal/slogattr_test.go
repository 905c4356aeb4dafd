package internal

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSlogHex16(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, nil))
	l.Info("reg", SlogHex16("val", 0x0a5f), SlogAddr4("ip", [4]byte{10, 0, 0, 1}))
	got := buf.String()
	if !strings.Contains(got, "val=0x0a5f") {
		t.Errorf("missing hex value: %s", got)
	}
	if !strings.Contains(got, "ip=167772161") {
		t.Errorf("missing address: %s", got)
	}
}
