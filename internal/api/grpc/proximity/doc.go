// Package proximity implements the gRPC status transport of the engine.
//
// The service is described by a hand-written grpc.ServiceDesc whose messages
// are protobuf well-known types: requests are google.protobuf.Empty and the
// status snapshot travels as a google.protobuf.Struct, so no generated code
// is needed on either side.
package proximity
