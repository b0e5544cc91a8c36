// Package e2e runs the cases file against the configured chatbot under
// go test:
//
//	CHATCHECK_CONFIG=chatcheck.yaml go test -tags e2e ./e2e/ -v
//
// With CHATCHECK_E2E_FAKEBOT=1 the run targets a local fakebot instead and
// needs only Chrome.
package e2e
