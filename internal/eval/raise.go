package eval

import "github.com/go-scm/go-scm/internal/runtime"

// handleRaise walks k outward from the point of failure looking for the
// nearest active guard or with-exception-handler installation, first unwinding any dynamic-wind
// or parameterize extents between the raise point and the handler so their
// after-thunks run exactly as a non-local exit would.
func (e *Evaluator) handleRaise(sig *runtime.RaiseSignal, k *Cont) (state, error) {
	for c := k; c != nil; c = c.Next {
		switch fr := c.Frame.(type) {
		case *frameWithHandlerInstalled:
			if err := e.unwindTo(fr.windMark); err != nil {
				return state{}, wrapSignal(err)
			}
			return applying(fr.handler, []runtime.Value{sig.Value}, push(&frameHandlerDone{rk: k, continuable: sig.Continuable}, c.Next)), nil
		case *frameGuardInstalled:
			if err := e.unwindTo(fr.windMark); err != nil {
				return state{}, wrapSignal(err)
			}
			genv := runtime.NewEnclosedEnvironment(fr.env)
			genv.Define(fr.varID, sig.Value)
			return guardTestStep(fr.clauses, genv, c.Next, sig)
		}
	}
	return state{}, sig
}
