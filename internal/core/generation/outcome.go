package generation

// Outcome is the result of a completed generation request.
type Outcome string

const (
	// OutcomeGenerated means a new statement was appended to a document.
	OutcomeGenerated Outcome = "generated"
	// OutcomeExisting means the document already had a statement with the
	// method's id; nothing was written.
	OutcomeExisting Outcome = "existing"
	// OutcomeNoMapperFound means no document carries the declaring type's
	// namespace. It is benign and not an error.
	OutcomeNoMapperFound Outcome = "no_mapper_found"
	// OutcomeCancelled means the user dismissed a selection.
	OutcomeCancelled Outcome = "cancelled"
)

// HasStatement reports whether the outcome carries a statement to navigate to.
func (o Outcome) HasStatement() bool {
	return o == OutcomeGenerated || o == OutcomeExisting
}

// State returns the terminal state for the outcome.
func (o Outcome) State() State {
	if o == OutcomeCancelled {
		return StateCancelled
	}
	return StateDone
}
