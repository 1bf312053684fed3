package unicache

import (
	"context"
	"fmt"
	"reflect"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// WrapOptions holds configuration options for function wrapping
type WrapOptions struct {
	// Namespace overrides the namespace derived from the function name
	Namespace string

	// TTL overrides the cache's default TTL for results of this function
	TTL time.Duration

	// Tags are attached to every cached result of this function
	Tags []string

	// KeyFunc overrides the identifier derivation function
	KeyFunc KeyFunc

	// DisableCache disables caching for this function (useful for testing)
	DisableCache bool

	// SingleFlight deduplicates concurrent calls for the same key. Off by
	// default: concurrent misses each execute the function independently.
	SingleFlight bool
}

// WrapOption is a function that configures WrapOptions
type WrapOption func(*WrapOptions)

// WithNamespace sets the cache namespace for the wrapped function
func WithNamespace(namespace string) WrapOption {
	return func(opts *WrapOptions) {
		opts.Namespace = namespace
	}
}

// WithTTL sets a custom TTL for the wrapped function's results
func WithTTL(ttl time.Duration) WrapOption {
	return func(opts *WrapOptions) {
		opts.TTL = ttl
	}
}

// WithTags attaches tags to every result cached by the wrapped function,
// so results can be removed in bulk with InvalidateTags
func WithTags(tags ...string) WrapOption {
	return func(opts *WrapOptions) {
		opts.Tags = append(opts.Tags, tags...)
	}
}

// WithKeyFunc sets a custom identifier derivation function for the
// wrapped function
func WithKeyFunc(keyFunc KeyFunc) WrapOption {
	return func(opts *WrapOptions) {
		opts.KeyFunc = keyFunc
	}
}

// WithoutCache disables caching for the wrapped function
func WithoutCache() WrapOption {
	return func(opts *WrapOptions) {
		opts.DisableCache = true
	}
}

// WithSingleFlight makes concurrent calls for the same uncached key share
// one execution instead of each computing independently
func WithSingleFlight() WrapOption {
	return func(opts *WrapOptions) {
		opts.SingleFlight = true
	}
}

// Wrap returns a cached version of fn with an identical call signature,
// backed by the given cache. A leading context.Context parameter is
// excluded from key derivation; functions whose last result is an error
// have errors returned verbatim and never cached. A nil cache returns fn
// unchanged.
func Wrap[T any](cache *Cache, fn T, options ...WrapOption) T {
	if cache == nil {
		return fn
	}

	opts := applyWrapOptions(options)
	return wrapFunction(fn, opts, func() (*Cache, bool) {
		return cache, true
	})
}

// WrapNamed is Wrap with the backing cache resolved through the registry
// on every call, so the wrapped function survives registry reconfiguration.
// When resolution fails the failure is logged and the call falls through
// to the original function, uncached. A nil registry returns fn unchanged.
func WrapNamed[T any](registry *Registry, name string, fn T, options ...WrapOption) T {
	if registry == nil {
		return fn
	}

	opts := applyWrapOptions(options)
	return wrapFunction(fn, opts, func() (*Cache, bool) {
		cache, err := registry.Get(name)
		if err != nil {
			registry.logger.Error("cache unavailable, executing uncached",
				zap.String("name", name),
				zap.Error(err))
			return nil, false
		}
		return cache, true
	})
}

func applyWrapOptions(options []WrapOption) *WrapOptions {
	opts := &WrapOptions{}
	for _, opt := range options {
		opt(opts)
	}
	return opts
}

// wrapFunction performs the actual function wrapping using reflection
func wrapFunction[T any](fn T, opts *WrapOptions, resolve func() (*Cache, bool)) T {
	fnValue := reflect.ValueOf(fn)
	fnType := fnValue.Type()

	// Validate that T is actually a function
	if fnType.Kind() != reflect.Func {
		panic("unicache.Wrap: argument must be a function")
	}

	if opts.Namespace == "" {
		opts.Namespace = functionNamespace(fnValue)
	}

	// One singleflight group per wrapped function
	var sf singleflight.Group

	wrapper := reflect.MakeFunc(fnType, func(args []reflect.Value) []reflect.Value {
		return executeWrapped(fnValue, fnType, opts, &sf, resolve, args)
	})

	return wrapper.Interface().(T)
}

// executeWrapped handles the core wrapping logic
func executeWrapped(fnValue reflect.Value, fnType reflect.Type, opts *WrapOptions, sf *singleflight.Group, resolve func() (*Cache, bool), args []reflect.Value) []reflect.Value {
	if opts.DisableCache {
		return fnValue.Call(args)
	}

	cache, ok := resolve()
	if !ok {
		return fnValue.Call(args)
	}

	keyFn := opts.KeyFunc
	if keyFn == nil {
		keyFn = cache.keyFunc()
	}
	identifier := keyFn(keyArgsFor(fnType, args))

	errReturn := hasErrorReturn(fnType)

	if cached, found := cache.Get(opts.Namespace, identifier); found {
		return renderResults(cached, fnType, errReturn)
	}

	if opts.SingleFlight {
		value, err, _ := sf.Do(opts.Namespace+":"+identifier, func() (any, error) {
			return callAndStore(cache, fnValue, opts, identifier, args, errReturn)
		})
		if err != nil {
			return errorResults(fnType, err)
		}
		return renderResults(value, fnType, errReturn)
	}

	value, err := callAndStore(cache, fnValue, opts, identifier, args, errReturn)
	if err != nil {
		return errorResults(fnType, err)
	}
	return renderResults(value, fnType, errReturn)
}

// callAndStore executes the original function and caches a successful
// result. Errors are returned to the caller and never stored.
func callAndStore(cache *Cache, fnValue reflect.Value, opts *WrapOptions, identifier string, args []reflect.Value, errReturn bool) (any, error) {
	value, err := packResults(fnValue.Call(args), errReturn)
	if err != nil {
		return nil, err
	}
	cache.Set(opts.Namespace, identifier, value, opts.TTL, opts.Tags...)
	return value, nil
}

var contextType = reflect.TypeOf((*context.Context)(nil)).Elem()

// keyArgsFor converts call arguments for key derivation. A leading
// context.Context is excluded so per-request contexts never fragment the
// key space.
func keyArgsFor(fnType reflect.Type, args []reflect.Value) []any {
	start := 0
	if len(args) > 0 && fnType.In(0) == contextType {
		start = 1
	}
	keyArgs := make([]any, 0, len(args)-start)
	for _, arg := range args[start:] {
		keyArgs = append(keyArgs, arg.Interface())
	}
	return keyArgs
}

// functionNamespace derives the default namespace from the function's
// runtime name (package path included).
func functionNamespace(fnValue reflect.Value) string {
	if f := runtime.FuncForPC(fnValue.Pointer()); f != nil {
		return f.Name()
	}
	return "func"
}

// hasErrorReturn checks if a function returns error as its last result.
// Error-only functions count: their errors pass through uncached and a
// success is cached as an empty result.
func hasErrorReturn(fnType reflect.Type) bool {
	return fnType.NumOut() >= 1 &&
		fnType.Out(fnType.NumOut()-1).Implements(reflect.TypeOf((*error)(nil)).Elem())
}

// packResults folds a call's results into a single cacheable value. For
// functions with an error result a non-nil error aborts packing; the
// error result itself is never part of the cached value.
func packResults(results []reflect.Value, errReturn bool) (any, error) {
	if errReturn {
		last := results[len(results)-1]
		if !last.IsNil() {
			return nil, last.Interface().(error)
		}
		results = results[:len(results)-1]
	}

	if len(results) == 1 {
		return results[0].Interface(), nil
	}
	values := make([]any, len(results))
	for i, result := range results {
		values[i] = result.Interface()
	}
	return values, nil
}

// renderResults converts a cached or freshly computed value back into the
// function's return shape. The error slot, when present, is nil: only
// successful results ever reach the cache.
func renderResults(value any, fnType reflect.Type, errReturn bool) []reflect.Value {
	numOut := fnType.NumOut()
	results := make([]reflect.Value, numOut)

	valueOuts := numOut
	if errReturn {
		results[numOut-1] = reflect.Zero(fnType.Out(numOut - 1))
		valueOuts--
	}

	switch valueOuts {
	case 0:
	case 1:
		results[0] = resultValue(value, fnType.Out(0))
	default:
		values := value.([]any)
		for i := 0; i < valueOuts; i++ {
			results[i] = resultValue(values[i], fnType.Out(i))
		}
	}

	return results
}

// resultValue builds a reflect.Value of type t holding value. Nil values
// become the type's zero value, so cached nil results round-trip.
func resultValue(value any, t reflect.Type) reflect.Value {
	if value == nil {
		return reflect.Zero(t)
	}
	return reflect.ValueOf(value)
}

// errorResults creates a return value slice carrying the given error
func errorResults(fnType reflect.Type, err error) []reflect.Value {
	numOut := fnType.NumOut()
	results := make([]reflect.Value, numOut)

	for i := 0; i < numOut-1; i++ {
		results[i] = reflect.Zero(fnType.Out(i))
	}
	results[numOut-1] = reflect.ValueOf(err)

	return results
}

// ValidateWrappableFunction checks if a function can be wrapped
// This is useful for providing better error messages at runtime
func ValidateWrappableFunction(fn any) error {
	fnType := reflect.TypeOf(fn)

	if fnType == nil || fnType.Kind() != reflect.Func {
		return fmt.Errorf("not a function: %T", fn)
	}

	if fnType.IsVariadic() {
		return fmt.Errorf("variadic functions are not currently supported")
	}

	numOut := fnType.NumOut()
	if numOut == 0 {
		return fmt.Errorf("functions with no return values cannot be cached")
	}

	// If there are multiple returns, the last one should be error
	if numOut > 1 {
		lastOut := fnType.Out(numOut - 1)
		if !lastOut.Implements(reflect.TypeOf((*error)(nil)).Elem()) {
			return fmt.Errorf("multi-return functions must have error as the last return value")
		}
	}

	return nil
}
