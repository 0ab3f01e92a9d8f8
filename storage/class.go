package storage

import (
	"github.com/sncore/node/common/felt"
	"github.com/sncore/node/db"
	"github.com/sncore/node/db/schema"
)

// ClassStore is the typed accessor over the three class-related columns:
// contract_class_data (Sierra/legacy blobs), compiled_contract_class (CASM),
// and contract_class_hashes (class_hash -> compiled_class_hash), none of
// which are history-indexed — a class, once declared, is immutable and
// content-addressed by its hash, per the GLOSSARY's "Class hash" entry.
type ClassStore struct {
	d db.Database
}

// NewClassStore constructs a ClassStore over d.
func NewClassStore(d db.Database) ClassStore {
	return ClassStore{d: d}
}

// GetClass returns the declared class for classHash.
func (s ClassStore) GetClass(classHash felt.Felt) (ContractClass, bool, error) {
	raw, ok, err := s.d.Get(schema.ContractClassData, EncodeFelt(classHash))
	if err != nil || !ok {
		return ContractClass{}, false, err
	}
	c, err := DecodeContractClass(classHash, raw)
	if err != nil {
		return ContractClass{}, false, &DecodeError{Column: schema.Name(schema.ContractClassData), Err: err}
	}
	return c, true, nil
}

// PutClass stages a class declaration into batch.
func (s ClassStore) PutClass(batch db.Batch, c ContractClass) error {
	return batch.Put(schema.ContractClassData, EncodeFelt(c.ClassHash), EncodeContractClass(c))
}

// GetCompiledClass returns the CASM compilation of classHash.
func (s ClassStore) GetCompiledClass(classHash felt.Felt) (CompiledClass, bool, error) {
	raw, ok, err := s.d.Get(schema.CompiledContractClass, EncodeFelt(classHash))
	if err != nil || !ok {
		return CompiledClass{}, false, err
	}
	c, err := DecodeCompiledClass(classHash, raw)
	if err != nil {
		return CompiledClass{}, false, &DecodeError{Column: schema.Name(schema.CompiledContractClass), Err: err}
	}
	return c, true, nil
}

// PutCompiledClass stages a CASM compilation into batch.
func (s ClassStore) PutCompiledClass(batch db.Batch, c CompiledClass) error {
	return batch.Put(schema.CompiledContractClass, EncodeFelt(c.ClassHash), EncodeCompiledClass(c))
}

// GetCompiledClassHash returns the compiled_class_hash declared for classHash.
func (s ClassStore) GetCompiledClassHash(classHash felt.Felt) (felt.Felt, bool, error) {
	raw, ok, err := s.d.Get(schema.ContractClassHashes, EncodeFelt(classHash))
	if err != nil || !ok {
		return felt.Felt{}, false, err
	}
	f, err := DecodeFelt(raw)
	if err != nil {
		return felt.Felt{}, false, &DecodeError{Column: schema.Name(schema.ContractClassHashes), Err: err}
	}
	return f, true, nil
}

// PutCompiledClassHash stages a class_hash -> compiled_class_hash mapping.
func (s ClassStore) PutCompiledClassHash(batch db.Batch, classHash, compiledClassHash felt.Felt) error {
	return batch.Put(schema.ContractClassHashes, EncodeFelt(classHash), EncodeFelt(compiledClassHash))
}
