package task

import (
	"github.com/cuemby/relay/pkg/event"
	"github.com/cuemby/relay/pkg/handler"
)

// handlerRef wraps a *handler.Handler so wait.go can refer to "the
// handler this coroutine installed" without task exporting handler
// construction details.
type handlerRef struct {
	h *handler.Handler
}

// newMatchHandlers installs one handler per channel in channels, so a wait
// on several channels wakes no matter which one the awaited event lands
// on. An empty channels installs a single unfiltered handler.
func newMatchHandlers(w *waitCoroutine, name string, channels []string) []*handlerRef {
	if len(channels) == 0 {
		channels = []string{""}
	}

	refs := make([]*handlerRef, 0, len(channels))
	for _, channel := range channels {
		h := handler.New(func(args []any, kwargs map[string]any) (any, error) {
			if len(args) == 0 {
				return nil, nil
			}
			ev, ok := args[0].(*event.Event)
			if !ok {
				return nil, nil
			}
			w.onMatch(ev)
			return nil, nil
		}, []string{name}, handler.WithEvent(), handler.WithChannel(channel), handler.WithLabel("wait:"+name))
		refs = append(refs, &handlerRef{h: h})
	}
	return refs
}

func newDoneHandler(w *waitCoroutine, name string) *handlerRef {
	doneName := name + "_done"
	h := handler.New(func(args []any, kwargs map[string]any) (any, error) {
		if len(args) == 0 {
			return nil, nil
		}
		source, ok := args[0].(*event.Event)
		if !ok {
			return nil, nil
		}
		w.onDone(source)
		return nil, nil
	}, []string{doneName}, handler.WithLabel("wait:"+doneName))
	return &handlerRef{h: h}
}

func newTickHandler(w *waitCoroutine) *handlerRef {
	h := handler.New(func(args []any, kwargs map[string]any) (any, error) {
		w.onTick()
		return nil, nil
	}, []string{"generate_events"}, handler.WithLabel("wait:tick"))
	return &handlerRef{h: h}
}
