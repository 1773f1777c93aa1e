package reply

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/valyala/bytebufferpool"

	"github.com/lucamaraschi/fastify/internal/fault"
	"github.com/lucamaraschi/fastify/internal/hook"
	"github.com/lucamaraschi/fastify/internal/serializer"
)

// ErrAlreadySent is returned when Send or Redirect is invoked on a Reply
// that already accepted a payload. This is a bug in the calling handler.
var ErrAlreadySent = errors.New("reply was already sent")

// copyBufferSize is the chunk size for piping stream payloads.
const copyBufferSize = 32 * 1024

// Reply is the per-request controller mediating handler output and the
// wire response. It owns its response sink exclusively and must not be
// shared across requests.
type Reply struct {
	req   *http.Request
	sink  http.ResponseWriter
	store *Store

	status        int // 0 means unset
	custom        serializer.Func
	errorExtender func(ctx context.Context) map[string]any

	started atomic.Bool // Send or Redirect accepted a payload
	sent    atomic.Bool // terminal write performed
	done    chan struct{}
}

// New creates a Reply for one incoming request.
func New(w http.ResponseWriter, r *http.Request, store *Store) *Reply {
	if store == nil {
		store = NewStore(StoreConfig{})
	}
	return &Reply{
		req:   r,
		sink:  w,
		store: store,
		done:  make(chan struct{}),
	}
}

// Request returns the request this reply belongs to.
func (r *Reply) Request() *http.Request {
	return r.req
}

// Code sets the response status code.
func (r *Reply) Code(status int) *Reply {
	if r.sent.Load() {
		r.store.logger.Warn("status change ignored, reply already completed",
			slog.Int("status", status))
		return r
	}
	r.status = status
	return r
}

// Header sets a response header.
func (r *Reply) Header(key, value string) *Reply {
	if r.sent.Load() {
		r.store.logger.Warn("header change ignored, reply already completed",
			slog.String("header", key))
		return r
	}
	r.sink.Header().Set(key, value)
	return r
}

// Headers sets multiple response headers.
func (r *Reply) Headers(h map[string]string) *Reply {
	for k, v := range h {
		r.Header(k, v)
	}
	return r
}

// Type sets the Content-Type header.
func (r *Reply) Type(mediaType string) *Reply {
	return r.Header("Content-Type", mediaType)
}

// Serializer installs a custom payload encoder for this reply only,
// overriding the store's default.
func (r *Reply) Serializer(fn serializer.Func) *Reply {
	r.custom = fn
	return r
}

// ErrorExtender installs a per-reply error-body extension, overriding the
// store's.
func (r *Reply) ErrorExtender(fn func(ctx context.Context) map[string]any) *Reply {
	r.errorExtender = fn
	return r
}

// Sent reports whether the reply has accepted a payload.
func (r *Reply) Sent() bool {
	return r.started.Load()
}

// Done is closed once the terminal write has completed.
func (r *Reply) Done() <-chan struct{} {
	return r.done
}

// Redirect completes the response immediately with a redirect status and
// Location header, bypassing classification and the hook chain. A code of
// 0 defaults to 302.
func (r *Reply) Redirect(code int, url string) error {
	if !r.started.CompareAndSwap(false, true) {
		r.store.logger.Error("redirect on an already sent reply",
			slog.String("path", r.req.URL.Path))
		return ErrAlreadySent
	}
	if code == 0 {
		code = http.StatusFound
	}
	r.sink.Header().Set("Location", url)
	r.status = code
	r.write(nil, true)
	return nil
}

// Send finalizes the response with the given payload. It classifies the
// payload, encodes it, defers the terminal write to the completion
// scheduler and runs the onSend hook chain before the write. The second
// call on the same Reply fails with ErrAlreadySent.
func (r *Reply) Send(payload any) error {
	if !r.started.CompareAndSwap(false, true) {
		r.store.logger.Error("send called twice on the same reply",
			slog.String("path", r.req.URL.Path))
		return ErrAlreadySent
	}
	r.dispatch(payload)
	return nil
}

// dispatch resolves futures and routes the concrete payload to an encoder.
func (r *Reply) dispatch(payload any) {
	// Resolve futures until a concrete value is produced. A future may
	// resolve to another future, an error or a plain value; all re-enter
	// classification uniformly.
	for {
		f, ok := payload.(Future)
		if !ok {
			break
		}
		v, err := f.Await(r.req.Context())
		if err != nil {
			payload = err
			continue
		}
		payload = v
	}

	switch p := payload.(type) {
	case nil:
		r.sendEmpty()
	case *fault.Fault:
		r.sendFault(p)
	case error:
		r.sendError(p)
	case io.Reader:
		r.sendStream(p)
	default:
		r.sendValue(payload)
	}
}

// sendEmpty finalizes an empty response: 204 unless a status was set.
func (r *Reply) sendEmpty() {
	if r.status == 0 {
		r.status = http.StatusNoContent
	}
	r.schedule(nil)
}

// sendFault passes a structured fault through: its status, its suggested
// headers, its payload.
func (r *Reply) sendFault(f *fault.Fault) {
	if f == nil {
		r.sendEmpty()
		return
	}

	status := f.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}
	r.store.logger.Error("fault response",
		slog.Int("status", status),
		slog.String("error", f.Error()),
	)

	r.status = status
	for k, v := range f.Headers {
		r.sink.Header().Set(k, v)
	}
	r.sink.Header().Set("Content-Type", "application/json")
	r.schedule(serializer.SafeMarshal(f.Body()))
}

// sendError normalizes a generic error into the canonical error body.
func (r *Reply) sendError(err error) {
	if f, ok := fault.As(err); ok {
		r.sendFault(f)
		return
	}

	if r.status < 400 {
		r.status = http.StatusInternalServerError
	}
	r.store.logger.Error("handler error",
		slog.Int("status", r.status),
		slog.String("error", err.Error()),
	)

	r.sink.Header().Set("Content-Type", "application/json")
	r.schedule(serializer.SafeMarshal(fault.Body(r.status, err.Error(), r.extension())))
}

// sendStream pipes a byte stream directly into the sink. The hook chain is
// bypassed: the body is not a single byte string to transform. A stream
// error mid-transfer is logged and the response is force-completed with
// whatever was already flushed.
func (r *Reply) sendStream(stream io.Reader) {
	if r.sink.Header().Get("Content-Type") == "" {
		r.sink.Header().Set("Content-Type", "application/octet-stream")
	}
	if r.status == 0 {
		r.status = http.StatusOK
	}

	r.store.sched.Enqueue(func() {
		if !r.sent.CompareAndSwap(false, true) {
			return
		}
		defer close(r.done)

		r.sink.WriteHeader(r.status)

		buf := bytebufferpool.Get()
		if cap(buf.B) < copyBufferSize {
			buf.B = make([]byte, copyBufferSize)
		}
		_, err := io.CopyBuffer(r.sink, stream, buf.B[:cap(buf.B)])
		bytebufferpool.Put(buf)

		if c, ok := stream.(io.Closer); ok {
			c.Close()
		}
		if err != nil {
			// Partial writes are accepted; there is no retry.
			r.store.logger.Error("stream error during send",
				slog.String("path", r.req.URL.Path),
				slog.String("error", err.Error()),
			)
		}
	})
}

// sendValue encodes a concrete value. With no content type, or an
// application/json one, the payload is serialized as JSON via the custom
// serializer if installed, else the store's default. A non-JSON content
// type uses the custom serializer when present and otherwise passes the
// payload through raw.
func (r *Reply) sendValue(payload any) {
	if r.status == 0 {
		r.status = http.StatusOK
	}

	ct := r.sink.Header().Get("Content-Type")
	jsonEligible := ct == "" || strings.HasPrefix(ct, "application/json")

	switch {
	case jsonEligible:
		ser := r.custom
		if ser == nil {
			ser = r.store.serializer
		}
		body, err := ser(payload, r.status)
		if err != nil {
			r.sendError(fmt.Errorf("payload serialization failed: %w", err))
			return
		}
		if ct == "" {
			r.sink.Header().Set("Content-Type", "application/json")
		}
		r.schedule(body)

	case r.custom != nil:
		body, err := r.custom(payload, r.status)
		if err != nil {
			r.sendError(fmt.Errorf("payload serialization failed: %w", err))
			return
		}
		r.schedule(body)

	default:
		r.sendRaw(payload)
	}
}

// sendRaw passes a pre-typed payload through unmodified; the caller
// controls the wire bytes. The hook chain is bypassed.
func (r *Reply) sendRaw(payload any) {
	var body []byte
	switch b := payload.(type) {
	case []byte:
		body = b
	case string:
		body = []byte(b)
	default:
		// Non-byte payloads on the raw path still need wire bytes.
		body = serializer.SafeMarshal(payload)
	}

	r.store.sched.Enqueue(func() {
		r.write(body, false)
	})
}

// schedule defers the hook chain and terminal write for an encoded body.
func (r *Reply) schedule(body []byte) {
	state := &hook.State{
		Request:    r.req,
		Header:     r.sink.Header(),
		StatusCode: r.status,
		Body:       body,
	}

	r.store.sched.Enqueue(func() {
		// A hook failure already normalized the state; the terminal
		// write proceeds regardless.
		_ = r.store.executor.Run(r.req.Context(), state, r.extension())
		r.status = state.StatusCode
		r.write(state.Body, true)
	})
}

// write performs the terminal write exactly once. forceLength recomputes
// Content-Length from the final body; the raw path only fills it in when
// the caller left it unset.
func (r *Reply) write(body []byte, forceLength bool) {
	if !r.sent.CompareAndSwap(false, true) {
		return
	}
	defer close(r.done)

	h := r.sink.Header()
	if forceLength || h.Get("Content-Length") == "" {
		h.Set("Content-Length", strconv.Itoa(len(body)))
	}
	r.sink.WriteHeader(r.status)
	if len(body) > 0 {
		if _, err := r.sink.Write(body); err != nil {
			r.store.logger.Error("terminal write failed",
				slog.String("path", r.req.URL.Path),
				slog.String("error", err.Error()),
			)
		}
	}
}

// extension resolves the error-body extension for this reply.
func (r *Reply) extension() map[string]any {
	fn := r.errorExtender
	if fn == nil {
		fn = r.store.errorExtender
	}
	if fn == nil {
		return nil
	}
	return fn(r.req.Context())
}
