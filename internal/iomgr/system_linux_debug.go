//go:build linux
package iomgr

import (
	"fmt"
	"strings"
)

func (o *Op) String() string {
	if o == nil {
		return "<nil>"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Op | Opcode: %v, Fd: 0x%x, Done: %v, Count: %d, Seen: %d, Res: 0x%x\n",
		o.Opcode, o.Fd, o.done, o.count, o.seen, o.Res)

	d := "|"
	if o.seen >= 1 { d = ">" }
	switch o.Opcode {
	case OpWrite:
		fmt.Fprintf(&b, "   %s [00] WRITE     [ Buf: @0x%x | Len: 0x%08x | Off: 0x%08x]\n",
			d, bufAddr(o.Buf), len(o.Buf), o.Off)
		if o.Sync {
			d = "|"
			if o.seen == 2 { d = ">" }
			fmt.Fprintf(&b, "   %s [01] FSYNC     [ ]\n", d)
		}
	case OpRead:
		fmt.Fprintf(&b, "   %s [00] READ      [ Buf: @0x%x | Len: 0x%08x | Off: 0x%08x]\n",
			d, bufAddr(o.Buf), len(o.Buf), o.Off)
	case OpSync:
		fmt.Fprintf(&b, "   %s [00] FSYNC     [ ]\n", d)
	case OpAllocate:
		fmt.Fprintf(&b, "   %s [00] FALLOCATE [ Off: 0x%08x | Len: 0x%08x]\n", d, o.Off, o.Len)
	case OpNop:
		fmt.Fprintf(&b, "   %s [00] NOP       [ ]\n", d)
	}

	return b.String()
}
