package rpc

import (
	"errors"
	"fmt"

	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

// RPCError is raised when the JSON-RPC response itself carries an `error`
// object — the endpoint understood the request and rejected it.
type RPCError struct {
	Method  string
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error calling %s: %s (code %d)", e.Method, e.Message, e.Code)
}

// RPCTransportError is raised on network/transport failure — the request
// never reached a server that could produce a well-formed JSON-RPC error.
type RPCTransportError struct {
	Method string
	Err    error
}

func (e *RPCTransportError) Error() string {
	return fmt.Sprintf("rpc transport error calling %s: %v", e.Method, e.Err)
}

func (e *RPCTransportError) Unwrap() error {
	return e.Err
}

// newRPCError classifies a raw error from the underlying rpc.Client into the
// gateway's typed error taxonomy. go-ethereum's rpc.Error is the protocol-
// error case (an `error` object was present in the response); anything else
// is treated as a transport failure.
func newRPCError(method string, err error) error {
	if err == nil {
		return nil
	}

	var rpcErr gethrpc.Error
	if errors.As(err, &rpcErr) {
		return &RPCError{Method: method, Code: rpcErr.ErrorCode(), Message: rpcErr.Error()}
	}

	return &RPCTransportError{Method: method, Err: err}
}
