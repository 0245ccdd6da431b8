// Package hookwire intercepts a reactive UI host at runtime so that many
// independent extensions can observe and change what it does without
// touching the host's source.
//
// # Runtime
//
// A [Runtime] owns every registry. It is created explicitly and installed
// into the host's patchable slots:
//
//	rt, err := hookwire.New(hookwire.WithConfig(cfg))
//	if err != nil {
//	    return err
//	}
//	if err := rt.Install(h.Bindings()); err != nil {
//	    return err
//	}
//	defer rt.Uninstall()
//
// # Registration APIs
//
// Extensions register through four entry points:
//
//   - [Runtime.Wrap] wraps any callable with an around-handler.
//   - [Runtime.SubscribeState] adds a matcher to the state chain. Matching
//     state instances are transformed as they are created and on every
//     update, and existing instances are adopted on subscription.
//   - [Runtime.SubscribeElementConstruction] rewrites elements as they are
//     built. The last matching transform wins.
//   - [Runtime.SubscribeMount] observes every (tree, container) pair the host
//     renders, including pairs rendered before the subscription.
//
// Every subscription returns a function that removes it; calling that
// function more than once is harmless.
//
// # Failure isolation
//
// Element and mount matchers are isolated: a panicking matcher is reported
// through the global [errors.ErrorHandler] and treated as if it had done
// nothing. State transforms are not isolated; their panics reach the caller
// of the setter.
//
// # Threading
//
// The host drives every call synchronously from its render loop. A Runtime
// keeps its collections consistent under concurrent access but never holds a
// lock while calling extension code.
package hookwire
