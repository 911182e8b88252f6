package machine001

import (
	"github.com/massvault/xvm/internal/logging"
	"github.com/massvault/xvm/p256oracle"
	"github.com/massvault/xvm/stackvm"
)

// Result runs the two-phase machine001 protocol of §4.6 and returns
// whether xsigEnv/xpubkeyEnv authorize msg under ctx.
//
// Phase one (witness) evaluates the xsig program against an empty
// message with no device context and no starting stack. Phase two
// (policy) evaluates the xpubkey program against msg and ctx, seeded
// with a Stack.Clone() of phase one's terminal stack — a bit-exact
// deep copy, so nothing phase two does can be observed by, or can
// retroactively alter, phase one's evaluation.
//
// Acceptance is strict: phase two must halt with no error, a stack
// depth of exactly 1, and that sole octet must equal 0x01. Any other
// outcome — a parse failure, a mid-program halt, a non-singleton
// stack, or a singleton that isn't 0x01 — is rejected. Rejection
// reasons are logged but never surfaced to the caller: per §7, this
// boundary collapses every failure mode to a single boolean.
func Result(xpubkeyEnv, xsigEnv []byte, msg []byte, ctx *stackvm.DeviceContext, oracle p256oracle.Oracle) bool {
	ok, _ := result(xpubkeyEnv, xsigEnv, msg, ctx, oracle)
	return ok
}

func result(xpubkeyEnv, xsigEnv []byte, msg []byte, ctx *stackvm.DeviceContext, oracle p256oracle.Oracle) (bool, error) {
	witness, err := parseEnvelope(xsigEnv, TypeXSig)
	if err != nil {
		logging.CPrint(logging.WARN, "machine001: bad xsig envelope", logging.LogFormat{"err": err.Error()})
		return false, err
	}
	policy, err := parseEnvelope(xpubkeyEnv, TypeXPubKey)
	if err != nil {
		logging.CPrint(logging.WARN, "machine001: bad xpubkey envelope", logging.LogFormat{"err": err.Error()})
		return false, err
	}

	witnessEval := stackvm.NewEvaluator(witness, nil, nil, oracle)
	if err := witnessEval.Run(); err != nil {
		logging.CPrint(logging.INFO, "machine001: witness phase halted", logging.LogFormat{"err": err.Error()})
		return false, err
	}

	handoff := witnessEval.Stack().Clone()
	policyEval := stackvm.NewEvaluatorWithStack(policy, msg, ctx, oracle, handoff)
	if err := policyEval.Run(); err != nil {
		logging.CPrint(logging.INFO, "machine001: policy phase halted", logging.LogFormat{"err": err.Error()})
		return false, err
	}

	final := policyEval.Stack()
	if final.Depth() != 1 {
		logging.CPrint(logging.INFO, "machine001: rejected, stack residue", logging.LogFormat{"depth": final.Depth()})
		return false, nil
	}
	if final.Bytes()[0] != 0x01 {
		logging.CPrint(logging.INFO, "machine001: rejected, non-accepting result", nil)
		return false, nil
	}
	return true, nil
}
