package identity

// FlowStage is the position of a lifecycle flow instance. Both the
// email-confirmation and password-reset flows share the same shape and
// differ only in token scope and TTL.
type FlowStage = string

const (
	// StageRequested is the entry: a caller supplied an email
	StageRequested FlowStage = "requested"
	// StageTokenIssued means a scoped token was minted and handed to the mailer
	StageTokenIssued FlowStage = "token-issued"
	// StageConfirmed is the terminal success state
	StageConfirmed FlowStage = "confirmed"
	// StageExpired terminates the flow on an expired token, no identity change
	StageExpired FlowStage = "expired"
	// StageInvalid terminates the flow on any other verifier rejection
	StageInvalid FlowStage = "invalid"
)

// stageForTokenError maps a verifier rejection to the terminal stage of
// the flow it ended.
func stageForTokenError(err error) FlowStage {
	if HasTextCode(err, TextCodeTokenExpired) {
		return StageExpired
	}
	return StageInvalid
}
