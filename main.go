package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	c "devio/internal"
	"devio/internal/devio"
	"devio/internal/devsim"
	"devio/internal/ringdev"
	"devio/internal/status"
	"devio/internal/util"

	"github.com/lmittmann/tint"
)

func main() {
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: time.TimeOnly,
	})))

	path := flag.String("path", filepath.Join(os.TempDir(), "devio.bin"), "backing file for the ring device")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dev, err := ringdev.Open(*path, ringdev.DefaultConfig())
	if errors.Is(err, ringdev.ErrUnsupported) {
		slog.Warn("ring device unavailable, using the simulated device")
		simulated(ctx)
		return
	}
	if err != nil {
		slog.Error("open", "path", *path, "err", err)
		os.Exit(1)
	}
	err = ring(ctx, devio.NewHandle(dev))
	if cerr := dev.Close(); cerr != nil {
		slog.Warn("close", "err", cerr)
	}
	if err != nil {
		slog.Error("devio", "err", err)
		os.Exit(1)
	}
}

func ring(ctx context.Context, h *devio.Handle) error {
	port := devio.NewCompletionPort()
	h.Associate(port, 1)

	msg := []byte("the quick brown fox jumps over the lazy dog")
	n, err := h.Control(ctx, ringdev.IOCTL_RINGDEV_WRITE, ringdev.WriteInput(0, msg), nil, nil)
	if err != nil { return fmt.Errorf("write: %w", err) }
	slog.Info("sync write", "bytes", n)

	out := make([]byte, len(msg))
	ov := &devio.Overlapped{}
	_, err = h.Control(ctx, ringdev.IOCTL_RINGDEV_READ, ringdev.ReadInput(0), out, ov)
	if !errors.Is(err, status.ErrIoPending) && err != nil { return fmt.Errorf("read: %w", err) }

	pkt, err := port.Get(ctx)
	if err != nil { return err }
	slog.Info("completion packet", "key", pkt.Key, "status", pkt.Status, "bytes", pkt.Bytes)
	n, err = h.OverlappedResult(ctx, ov, true)
	if err != nil { return fmt.Errorf("read result: %w", err) }
	fmt.Print(util.HexDump(out, int(n)))

	sum := make([]byte, c.LEN_U64)
	if _, err = h.Control(ctx, ringdev.IOCTL_RINGDEV_CHECKSUM, ringdev.ChecksumInput(0, uint32(len(msg))), sum, nil); err != nil {
		return fmt.Errorf("checksum: %w", err)
	}
	slog.Info("checksum", "xxhash", fmt.Sprintf("%016x", c.Bin.Uint64(sum)))

	short := make([]byte, 3)
	n, err = h.Control(ctx, ringdev.FSCTL_RINGDEV_QUERY_VERSION, nil, short, nil)
	slog.Info("version (short buffer)", "partial", string(short[:n]), "err", err)

	_, err = h.Control(ctx, ringdev.FSCTL_RINGDEV_FLUSH, nil, nil, nil)
	return err
}

func simulated(ctx context.Context) {
	code := devio.CtlCode(devio.FILE_DEVICE_UNKNOWN, 0x800, devio.METHOD_BUFFERED, devio.FILE_ANY_ACCESS)
	dev := devsim.New()
	dev.On(code, devsim.Behavior{
		Immediate:	status.StatusPending,
		Final:		status.StatusSuccess,
		Bytes:		32,
		Delay:		5 * time.Millisecond,
	})
	h := devio.NewHandle(dev)

	out := make([]byte, 32)
	ov := &devio.Overlapped{Event: devio.NewEvent(true, false)}
	_, err := h.Control(ctx, code, nil, out, ov)
	slog.Info("started", "err", err)

	_, err = h.OverlappedResult(ctx, ov, false)
	slog.Info("probe", "err", err)

	n, err := h.OverlappedResult(ctx, ov, true)
	if err != nil {
		slog.Error("simulated", "err", err)
		return
	}
	fmt.Print(util.HexDump(out, int(n)))
}
