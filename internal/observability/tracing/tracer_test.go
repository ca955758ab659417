// Copyright 2026 The Crewdeck Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

import (
	"context"
	"testing"
)

// A failed New leaves the caller holding a nil *Tracer; the deferred
// Shutdown must still be safe.
func TestTracer_ShutdownNilTracer(t *testing.T) {
	var tr *Tracer
	if err := tr.Shutdown(context.Background()); err != nil {
		t.Errorf("nil tracer shutdown returned %v", err)
	}
}

func TestTracer_DisabledIsNoop(t *testing.T) {
	ctx := context.Background()

	tr, err := New(ctx, Config{Enabled: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.GetTracer() == nil {
		t.Error("disabled tracer must still hand out a noop tracer")
	}
	if err := tr.Shutdown(ctx); err != nil {
		t.Errorf("disabled tracer shutdown returned %v", err)
	}
}
