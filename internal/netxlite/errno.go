package netxlite

// This enumeration lists the failure strings we map errors to. Each
// string is stable and can be matched by callers and by tooling that
// processes our logs.
const (
	FailureAddressFamilyNotSupported    = "address_family_not_supported"
	FailureAddressInUse                 = "address_in_use"
	FailureAddressNotAvailable          = "address_not_available"
	FailureAlreadyConnected             = "already_connected"
	FailureBadAddress                   = "bad_address"
	FailureBadFileDescriptor            = "bad_file_descriptor"
	FailureConnectionAborted            = "connection_aborted"
	FailureConnectionAlreadyClosed      = "connection_already_closed"
	FailureConnectionAlreadyInProgress  = "connection_already_in_progress"
	FailureConnectionRefused            = "connection_refused"
	FailureConnectionReset              = "connection_reset"
	FailureDNSNXDOMAINError             = "dns_nxdomain_error"
	FailureDNSNoAnswer                  = "dns_no_answer"
	FailureDNSNonRecoverableFailure     = "dns_non_recoverable_failure"
	FailureDNSRefusedError              = "dns_refused_error"
	FailureDNSServerMisbehaving         = "dns_server_misbehaving"
	FailureDNSServfailError             = "dns_servfail_error"
	FailureDNSTemporaryFailure          = "dns_temporary_failure"
	FailureDestinationAddressRequired   = "destination_address_required"
	FailureEOFError                     = "eof_error"
	FailureGenericTimeoutError          = "generic_timeout_error"
	FailureHostUnreachable              = "host_unreachable"
	FailureInterrupted                  = "interrupted"
	FailureInvalidArgument              = "invalid_argument"
	FailureInvalidServerName            = "invalid_server_name"
	FailureMessageSize                  = "message_size"
	FailureNetworkDown                  = "network_down"
	FailureNetworkReset                 = "network_reset"
	FailureNetworkUnreachable           = "network_unreachable"
	FailureNoBufferSpace                = "no_buffer_space"
	FailureNoProtocolOption             = "no_protocol_option"
	FailureNotASocket                   = "not_a_socket"
	FailureNotConnected                 = "not_connected"
	FailureOperationWouldBlock          = "operation_would_block"
	FailurePermissionDenied             = "permission_denied"
	FailureProtocolNotSupported         = "protocol_not_supported"
	FailureSSLFailedHandshake           = "ssl_failed_handshake"
	FailureSSLInvalidCertificate        = "ssl_invalid_certificate"
	FailureSSLInvalidHostname           = "ssl_invalid_hostname"
	FailureSSLUnknownAuthority          = "ssl_unknown_authority"
	FailureTimedOut                     = "timed_out"
	FailureUnsupportedStream            = "unsupported_stream"
	FailureWrongProtocolType            = "wrong_protocol_type"
)
