package core

import (
	"crypto/sha256"
	"fmt"
)

// descPrefixLen bounds how much of the description participates in the
// duplicate signature; pasted statements often truncate long descriptions
// differently between exports.
const descPrefixLen = 24

// Signature returns a content hash used for duplicate detection. The
// reported balance is deliberately excluded: the same transaction may be
// re-submitted later with a corrected or absent balance.
func (t Transaction) Signature() string {
	desc := t.Description
	if len(desc) > descPrefixLen {
		desc = desc[:descPrefixLen]
	}
	data := fmt.Sprintf("%s:%s:%s:%s",
		t.Date.Key(),
		desc,
		t.Debit.Round(2).String(),
		t.Credit.Round(2).String())
	sum := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", sum)
}
