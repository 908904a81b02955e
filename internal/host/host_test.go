package host_test

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/scorelang/scorec/internal/config"
	"github.com/scorelang/scorec/internal/host"
	"github.com/scorelang/scorec/internal/vm"
)

func newHost(cfg config.HostConfig) (*host.Host, *bytes.Buffer) {
	var buf bytes.Buffer
	return host.New(map[string]*vm.Chunk{}, &buf, cfg), &buf
}

func TestHostPutRendersValueString(t *testing.T) {
	h, buf := newHost(config.HostConfig{})
	h.Put(vm.Int(42))
	if buf.String() != "42\n" {
		t.Errorf("output = %q, want %q", buf.String(), "42\n")
	}
}

func TestHostTheDefaultsWithoutConfig(t *testing.T) {
	h, _ := newHost(config.HostConfig{})

	sep, err := h.The(vm.TheDirSeparator)
	if err != nil || sep.Str().String() != config.DefaultDirSeparator {
		t.Errorf("dirseparator = %v, err=%v, want %q", sep, err, config.DefaultDirSeparator)
	}

	platform, err := h.The(vm.ThePlatform)
	if err != nil || platform.Str().String() != runtime.GOOS {
		t.Errorf("platform = %v, err=%v, want %q", platform, err, runtime.GOOS)
	}
}

func TestHostTheUsesConfigOverrides(t *testing.T) {
	h, _ := newHost(config.HostConfig{MoviePath: "/movies/demo", DirSeparator: `\`, Platform: "win", RandomSeed: 9})

	mp, _ := h.The(vm.TheMoviePath)
	if mp.Str().String() != "/movies/demo" {
		t.Errorf("moviepath = %v, want /movies/demo", mp)
	}
	sep, _ := h.The(vm.TheDirSeparator)
	if sep.Str().String() != `\` {
		t.Errorf("dirseparator = %v, want backslash", sep)
	}
	platform, _ := h.The(vm.ThePlatform)
	if platform.Str().String() != "win" {
		t.Errorf("platform = %v, want win", platform)
	}
	seed, _ := h.The(vm.TheRandomSeed)
	if seed.Int() != 9 {
		t.Errorf("randomseed = %v, want 9", seed)
	}
}

func TestHostResolveFunctionAbsIntStaysInt(t *testing.T) {
	h, _ := newHost(config.HostConfig{})
	fn, ok := h.ResolveFunction("abs")
	if !ok {
		t.Fatal("expected abs to resolve as a free function")
	}
	v, err := fn(nil, vm.Value{}, []vm.Value{vm.Int(-5)})
	if err != nil {
		t.Fatalf("abs(-5): %v", err)
	}
	if v.Type != vm.TInt || v.Int() != 5 {
		t.Errorf("abs(-5) = %v, want Int(5)", v)
	}
}

func TestHostResolveFunctionAbsFloat(t *testing.T) {
	h, _ := newHost(config.HostConfig{})
	fn, _ := h.ResolveFunction("abs")
	v, err := fn(nil, vm.Value{}, []vm.Value{vm.Float(-2.5)})
	if err != nil {
		t.Fatalf("abs(-2.5): %v", err)
	}
	if v.Type != vm.TFloat || v.Float() != 2.5 {
		t.Errorf("abs(-2.5) = %v, want Float(2.5)", v)
	}
}

func TestHostResolveFunctionPointRequiresTwoNumericArgs(t *testing.T) {
	h, _ := newHost(config.HostConfig{})
	fn, ok := h.ResolveFunction("point")
	if !ok {
		t.Fatal("expected point to resolve as a free function")
	}
	if _, err := fn(nil, vm.Value{}, []vm.Value{vm.Int(1)}); err == nil {
		t.Error("expected an error for point() with one argument")
	}
	v, err := fn(nil, vm.Value{}, []vm.Value{vm.Int(3), vm.Float(4.5)})
	if err != nil {
		t.Fatalf("point(3, 4.5): %v", err)
	}
	if v.Type != vm.TPoint || v.Point().X != 3 || v.Point().Y != 4.5 {
		t.Errorf("point(3, 4.5) = %v, want Point{3, 4.5}", v)
	}
}

func TestHostResolveFunctionRectRequiresFourNumericArgs(t *testing.T) {
	h, _ := newHost(config.HostConfig{})
	fn, ok := h.ResolveFunction("rect")
	if !ok {
		t.Fatal("expected rect to resolve as a free function")
	}
	if _, err := fn(nil, vm.Value{}, []vm.Value{vm.Int(1), vm.Int(2), vm.Int(3)}); err == nil {
		t.Error("expected an error for rect() with three arguments")
	}
	v, err := fn(nil, vm.Value{}, []vm.Value{vm.Int(0), vm.Int(0), vm.Int(10), vm.Int(20)})
	if err != nil {
		t.Fatalf("rect(0,0,10,20): %v", err)
	}
	if v.Type != vm.TQuad {
		t.Errorf("rect(...) = %v, want a quad", v)
	}
}

func TestHostResolveFunctionUnknownNameMisses(t *testing.T) {
	h, _ := newHost(config.HostConfig{})
	if _, ok := h.ResolveFunction("nope"); ok {
		t.Error("expected an unknown function name to miss")
	}
}

func TestHostGlobalsRoundTrip(t *testing.T) {
	h, _ := newHost(config.HostConfig{})
	if _, ok := h.ResolveGlobal("counter"); ok {
		t.Error("expected an unset global to miss")
	}
	h.SetGlobal("counter", vm.Int(3))
	v, ok := h.ResolveGlobal("counter")
	if !ok || v.Int() != 3 {
		t.Errorf("ResolveGlobal(counter) = %v, %v, want Int(3), true", v, ok)
	}
}

func TestHostReceiverIsFreshPropList(t *testing.T) {
	h, _ := newHost(config.HostConfig{})
	if h.Receiver.Type != vm.TPropList {
		t.Errorf("Receiver.Type = %v, want TPropList", h.Receiver.Type)
	}
	if h.Receiver.PropList().Len() != 0 {
		t.Errorf("fresh receiver should have no properties set, got %d", h.Receiver.PropList().Len())
	}
}
