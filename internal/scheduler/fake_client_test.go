package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/paramind/paramind/internal/worker"
)

// fakeCall records one invocation of the fake worker client.
type fakeCall struct {
	Worker      string
	Instruction string
}

// fakeClient is a scripted worker.Client for tests. The handler decides
// each call's outcome; without one every call succeeds with a canned
// response long enough to not trigger refinement.
type fakeClient struct {
	mu    sync.Mutex
	calls []fakeCall

	inFlight    int
	maxInFlight int

	delay         time.Duration
	blockUntilCtx bool
	handler       func(n int, name, instruction string) (worker.Response, error)
}

func (f *fakeClient) Call(ctx context.Context, name, instruction string, _ ...worker.CallOption) (worker.Response, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{Worker: name, Instruction: instruction})
	n := len(f.calls)
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.blockUntilCtx {
		<-ctx.Done()
		return worker.Response{}, ctx.Err()
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return worker.Response{}, ctx.Err()
		}
	}

	if f.handler != nil {
		return f.handler(n, name, instruction)
	}
	return worker.Response{
		Text:    fmt.Sprintf("Detailed response from %s covering every part of the task thoroughly.", name),
		Tokens:  10,
		Elapsed: 0.1,
	}, nil
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeClient) callsFor(name string) []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []fakeCall
	for _, c := range f.calls {
		if c.Worker == name {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeClient) peakConcurrency() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}
