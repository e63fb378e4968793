// Package bazaar is a client for the x402 Bazaar marketplace, a catalog of
// paid HTTP APIs that gate access with the 402 Payment Required status.
//
// A call either succeeds, asks for payment, or fails, and CallAPI reports
// exactly one of those as an Outcome:
//
//	switch out := client.CallAPI(ctx, "/api/weather", bazaar.Params{"city": "Paris"}).(type) {
//	case *bazaar.Success:
//		// out.Data holds the decoded response
//	case *bazaar.PaymentRequired:
//		// send out.CostUSDC USDC as instructed, then call again with
//		// bazaar.WithPaymentProof(txHash)
//	case *bazaar.Failure:
//		// out.Message says why
//	}
//
// The client never pays on its own.  Proof of an out-of-band payment (a
// transaction hash) is forwarded to the marketplace, which decides whether
// it is sufficient.
//
// Defaults
//
//   - The base URL is https://x402-api.onrender.com.
//   - Every request times out after 30 seconds.
//   - If the WithHTTPClient option is not specified, a fresh http.Client
//     over http.DefaultTransport is used.
//   - If the WithLogger Option is not specified, a No-Op logger is used.
package bazaar
