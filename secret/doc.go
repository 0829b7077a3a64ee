// Package secret resolves secret references in configuration values.
//
// Values may use strict environment expansion (see ExpandEnvStrict) and
// secret references of the form secretref:<provider>:<ref>, either as the
// whole value or inline:
//
//	idp_audience: ${AUDIENCE}
//	idp_upstream: secretref:file:/var/run/secrets/idp/upstream
//	idp_authority: secretref:env:IDP_AUTHORITY
//
// Two providers are built in: EnvProvider ("env") and FileProvider ("file")
// for mounted secret files.
package secret
