package events

import (
	contractsv1 "coopvote/contracts/gen/events/v1"
)

// Envelope is the canonical event shape carried on the bus. Both governance
// contexts publish this shape; consumers decode Data by EventType. The
// contracts module owns the wire definition so platform and context code
// agree on one type.
type Envelope = contractsv1.Envelope
