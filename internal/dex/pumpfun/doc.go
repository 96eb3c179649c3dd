// Package pumpfun reads and values Pump.fun bonding curves on Solana.
//
// This package provides:
// - Bonding curve PDA derivation (DeriveBondingCurve).
// - Positional decoding of the bonding curve account (DecodeBondingCurve).
// - Valuation: progress, price, market cap and category (Valuate, Categorize).
// - Constant-product trade simulation in big-integer arithmetic (SimulateBuy, SimulateSell).
// - CurveService: a cached, read-through view over live curve accounts.
//
// Nothing in this package signs or submits transactions.
//
// Usage example:
//
//	svc := pumpfun.NewCurveService(client, cache.NewMemory(), pumpfun.GetDefaultConfig(), nil, logger)
//	val, err := svc.GetBondingCurve(ctx, "TOKEN_MINT_ADDRESS")
//	if errors.Is(err, pumpfun.ErrValuationUnavailable) {
//	    // no curve: not created yet or already migrated
//	}
package pumpfun
