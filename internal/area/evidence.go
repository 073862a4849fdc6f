package area

import (
	apperrors "github.com/louisbranch/gavel/internal/errors"
)

// EvidenceMode returns the current evidence mode.
func (a *Area) EvidenceMode() EvidenceMod {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.evidenceMod
}

// SetEvidenceMode switches the evidence mode. Leaving HiddenCM reveals
// every item so visibility never regresses silently.
func (a *Area) SetEvidenceMode(mod EvidenceMod) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.evidenceMod == EvidenceHiddenCM && mod != EvidenceHiddenCM {
		for i := range a.evidence {
			a.evidence[i].Pos = "all"
		}
	}
	a.evidenceMod = mod
}

// CanMutateEvidence reports whether a member with the given privileges may
// add, edit, delete, or reorder evidence.
func (a *Area) CanMutateEvidence(isMod, isCM bool) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.evidenceMod {
	case EvidenceMods:
		return isMod
	case EvidenceCM, EvidenceHiddenCM:
		return isMod || isCM
	default:
		return true
	}
}

// AddEvidence appends an item visible to everyone.
func (a *Area) AddEvidence(name, desc, image string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.evidence = append(a.evidence, Evidence{Name: name, Desc: desc, Image: image, Pos: "all"})
}

// EditEvidence replaces an item in place, keeping its visibility.
func (a *Area) EditEvidence(index int, name, desc, image string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= len(a.evidence) {
		return apperrors.Argument("no evidence at that index")
	}
	pos := a.evidence[index].Pos
	a.evidence[index] = Evidence{Name: name, Desc: desc, Image: image, Pos: pos}
	return nil
}

// DeleteEvidence removes an item.
func (a *Area) DeleteEvidence(index int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= len(a.evidence) {
		return apperrors.Argument("no evidence at that index")
	}
	a.evidence = append(a.evidence[:index], a.evidence[index+1:]...)
	return nil
}

// SwapEvidence exchanges two items.
func (a *Area) SwapEvidence(i, j int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < 0 || i >= len(a.evidence) || j < 0 || j >= len(a.evidence) {
		return apperrors.Argument("no evidence at that index")
	}
	a.evidence[i], a.evidence[j] = a.evidence[j], a.evidence[i]
	return nil
}

// SetEvidencePos retags an item's visibility.
func (a *Area) SetEvidencePos(index int, pos string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= len(a.evidence) {
		return apperrors.Argument("no evidence at that index")
	}
	a.evidence[index].Pos = pos
	return nil
}

// Evidence returns a copy of the full list, privileged view.
func (a *Area) Evidence() []Evidence {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Evidence(nil), a.evidence...)
}

// VisibleEvidence returns the items a member may see, together with a map
// from the member's list positions back to real list indices. Outside
// HiddenCM mode, or for privileged viewers, that mapping is the identity.
func (a *Area) VisibleEvidence(isMod, isCM bool) ([]Evidence, []int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	hideFromViewer := a.evidenceMod == EvidenceHiddenCM && !isMod && !isCM
	items := make([]Evidence, 0, len(a.evidence))
	indices := make([]int, 0, len(a.evidence))
	for i, ev := range a.evidence {
		if hideFromViewer && ev.Pos != "all" {
			continue
		}
		items = append(items, ev)
		indices = append(indices, i)
	}
	return items, indices
}
