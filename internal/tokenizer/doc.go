// Package tokenizer turns amino-acid frames into the int32 ids the models
// consume.
//
// The vocabulary has 22 entries:
//   - 0: padding, masked by the models' embedding
//   - 1..20: the canonical residues ACDEFGHIKLMNPQRSTVWY
//   - 21: unknown (X, stop codons and ambiguous residues)
//
// Example usage:
//
//	tok := tokenizer.NewAminoAcid()
//	ids, err := tok.Encode("MKV*")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Six frames, padded to 128 ids each
//	batch, err := tokenizer.EncodeFrames(tok, frames, 128)
package tokenizer
