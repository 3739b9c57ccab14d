// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 aPlane Authors

package ledger

import "encoding/json"

// AccountState is the account record returned by GET /accounts/{address}.
type AccountState struct {
	SequenceNumber    string `json:"sequence_number"`
	AuthenticationKey string `json:"authentication_key,omitempty"`
}

// Resource is an account resource exactly as the ledger returned it.
type Resource = json.RawMessage

// signingMessageResponse is the response from POST /transactions/signing_message.
type signingMessageResponse struct {
	Message *string `json:"message"`
}
