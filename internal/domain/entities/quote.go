package entities

import "math/big"

// Default proportional input fee: 3/1000 = 0.3%, matching the pair
// contract's integer arithmetic.
const (
	DefaultFeeNumerator   = 3
	DefaultFeeDenominator = 1000
)

// Quote is the ephemeral result of a constant-product trade estimate.
// It is recomputed on every input change and never persisted.
type Quote struct {
	AmountIn  *big.Int `json:"amountIn"`
	AmountOut *big.Int `json:"amountOut"`
	FeeAmount *big.Int `json:"feeAmount"`
}

// ComputeQuote estimates the output of a swap against the given reserves
// using the default 0.3% fee.
func ComputeQuote(amountIn, reserveIn, reserveOut *big.Int) (Quote, error) {
	return ComputeQuoteWithFee(amountIn, reserveIn, reserveOut, DefaultFeeNumerator, DefaultFeeDenominator)
}

// ComputeQuoteWithFee estimates the output of a swap against the given
// reserves. All arithmetic is integer big.Int with truncating division so
// the result matches the on-chain computation bit for bit:
//
//	feeAmount = floor(amountIn * feeNum / feeDen)
//	effective = amountIn - feeAmount
//	amountOut = floor(effective * reserveOut / (reserveIn + effective))
//
// The fee is taken from the input side before the constant-product step.
// No side effects; safe to call on every input change.
func ComputeQuoteWithFee(amountIn, reserveIn, reserveOut *big.Int, feeNum, feeDen int64) (Quote, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return Quote{}, &InvalidQuoteInputError{Operand: "amountIn", Value: amountIn}
	}
	if reserveIn == nil || reserveIn.Sign() <= 0 {
		return Quote{}, &InvalidQuoteInputError{Operand: "reserveIn", Value: reserveIn}
	}
	if reserveOut == nil || reserveOut.Sign() <= 0 {
		return Quote{}, &InvalidQuoteInputError{Operand: "reserveOut", Value: reserveOut}
	}

	feeAmount := new(big.Int).Mul(amountIn, big.NewInt(feeNum))
	feeAmount.Div(feeAmount, big.NewInt(feeDen))

	effective := new(big.Int).Sub(amountIn, feeAmount)

	numerator := new(big.Int).Mul(effective, reserveOut)
	denominator := new(big.Int).Add(reserveIn, effective)
	amountOut := numerator.Div(numerator, denominator)

	return Quote{
		AmountIn:  new(big.Int).Set(amountIn),
		AmountOut: amountOut,
		FeeAmount: feeAmount,
	}, nil
}

// CheckMaxInput is the caller-side guardrail rejecting trades whose input
// consumes more than maxInputBps basis points of the input reserve. It is
// policy, not AMM math: the pair contract would accept such a trade, the
// user would just be ruined by slippage.
func CheckMaxInput(amountIn, reserveIn *big.Int, maxInputBps uint64) error {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return &InvalidQuoteInputError{Operand: "amountIn", Value: amountIn}
	}
	if reserveIn == nil || reserveIn.Sign() <= 0 {
		return &InvalidQuoteInputError{Operand: "reserveIn", Value: reserveIn}
	}

	// amountIn * 10000 > reserveIn * maxInputBps
	lhs := new(big.Int).Mul(amountIn, big.NewInt(10000))
	rhs := new(big.Int).Mul(reserveIn, new(big.Int).SetUint64(maxInputBps))
	if lhs.Cmp(rhs) > 0 {
		return ErrExcessiveInput
	}
	return nil
}

// ApplySlippage scales amount down by slippageBps basis points, producing
// the minimum acceptable amount for a submitted transaction.
func ApplySlippage(amount *big.Int, slippageBps uint64) *big.Int {
	if amount == nil {
		return nil
	}
	out := new(big.Int).Mul(amount, big.NewInt(10000-int64(slippageBps)))
	return out.Div(out, big.NewInt(10000))
}
