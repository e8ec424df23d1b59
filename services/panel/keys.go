package panel

import (
	"bufio"
	"context"
	"io"

	"benchpsu-go/types"
)

// KeySource reads single-character commands from a line-oriented reader,
// for driving the host build from a terminal:
//
//	w/s/a/d  up, down, left, right
//	e        enter
//	x        switch (set/limit)
//	q        settings
//	1 / 2    channel A / channel B
//
// Function keys produce a press and a release. Unknown characters are
// ignored.
type KeySource struct {
	ch chan types.InterfaceEvent
}

// NewKeySource starts a reader goroutine that exits at EOF or when ctx is
// cancelled and the next line arrives.
func NewKeySource(ctx context.Context, r io.Reader) *KeySource {
	k := &KeySource{ch: make(chan types.InterfaceEvent, 64)}
	go k.read(ctx, r)
	return k
}

func (k *KeySource) read(ctx context.Context, r io.Reader) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		for _, c := range sc.Text() {
			for _, ev := range keyEvents(c) {
				select {
				case k.ch <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func (k *KeySource) Poll(dst []types.InterfaceEvent) []types.InterfaceEvent {
	for {
		select {
		case ev := <-k.ch:
			dst = append(dst, ev)
		default:
			return dst
		}
	}
}

func keyEvents(c rune) []types.InterfaceEvent {
	var key Key
	switch c {
	case 'w':
		key = KeyUp
	case 's':
		key = KeyDown
	case 'a':
		key = KeyLeft
	case 'd':
		key = KeyRight
	case 'e':
		key = KeyEnter
	case 'x':
		key = KeySwitch
	case 'q':
		key = KeySettings
	case '1':
		key = KeyChannelA
	case '2':
		key = KeyChannelB
	default:
		return nil
	}
	var out []types.InterfaceEvent
	for _, ch := range []types.Change{types.Pressed, types.Released} {
		if ev, ok := EventFor(key, ch); ok {
			out = append(out, ev)
		}
	}
	return out
}
