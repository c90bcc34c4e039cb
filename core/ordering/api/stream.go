package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.dedis.ch/bazaar/core/events"
	"golang.org/x/xerrors"
)

// streamSize is the number of events an observer can buffer before it starts
// to drop them.
const streamSize = 100

// streamObserver forwards the events of the watcher to a stream. It never
// blocks the host, and drops the events of a slow stream.
//
// - implements events.Observer
type streamObserver struct {
	ch chan events.Event
}

func newStreamObserver() streamObserver {
	return streamObserver{
		ch: make(chan events.Event, streamSize),
	}
}

// NotifyCallback implements events.Observer.
func (o streamObserver) NotifyCallback(evt events.Event) {
	select {
	case o.ch <- evt:
	default:
	}
}

// stream writes the committed events as server-sent events until the client
// goes away. The stream can be narrowed to one type with ?type=.
func (h handler) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, http.StatusInternalServerError, xerrors.New("streaming not supported"))
		return
	}

	filter := r.URL.Query().Get("type")

	obs := newStreamObserver()
	h.watcher.Add(obs)
	defer h.watcher.Remove(obs)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-obs.ch:
			if filter != "" && evt.Type != filter {
				continue
			}

			data, err := json.Marshal(EventJSON{Type: evt.Type, Attributes: evt.Attributes})
			if err != nil {
				h.logger.Warn().Err(err).Msg("failed to encode event")
				continue
			}

			_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
			if err != nil {
				return
			}

			flusher.Flush()
		}
	}
}
