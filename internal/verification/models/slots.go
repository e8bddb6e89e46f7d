package models

// Slot names one upload position in a verification request.
type Slot string

const (
	SlotIDFront       Slot = "id_front"
	SlotIDBack        Slot = "id_back"
	SlotSelfieWithID  Slot = "selfie_with_id"
	SlotAdditionalDoc Slot = "additional_doc"
)

// RequiredSlots lists the slots every request must carry, in validation order.
var RequiredSlots = []Slot{SlotIDFront, SlotIDBack, SlotSelfieWithID}

// AllSlots lists every accepted slot, in validation order.
var AllSlots = []Slot{SlotIDFront, SlotIDBack, SlotSelfieWithID, SlotAdditionalDoc}

func (s Slot) String() string { return string(s) }

func (s Slot) IsRequired() bool {
	return s == SlotIDFront || s == SlotIDBack || s == SlotSelfieWithID
}

// DocumentSide distinguishes the two ID images.
type DocumentSide string

const (
	SideFront DocumentSide = "front"
	SideBack  DocumentSide = "back"
)

// Slot returns the upload slot that holds this side's image.
func (s DocumentSide) Slot() Slot {
	if s == SideBack {
		return SlotIDBack
	}
	return SlotIDFront
}
