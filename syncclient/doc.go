// Package syncclient implements the client side of the Firefox Sync 1.5
// storage protocol: authorized request construction, response metadata
// decoding, server backoff enforcement, and the batch-upload engine used to
// push a record set to a collection.
//
// The cryptographic envelope and the HAWK signing scheme are treated as
// external collaborators (see Encrypter and Authorizer); package hawkauth
// supplies the default HAWK-based Authorizer.
package syncclient
