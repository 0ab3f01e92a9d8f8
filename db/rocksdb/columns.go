package rocksdb

import (
	"github.com/linxGnu/grocksdb"

	"github.com/sncore/node/db/schema"
)

// cfOptions builds the per-column-family tuning options. Most columns use
// the defaults; history-indexed columns additionally register a
// fixed-prefix extractor so RocksDB's bloom filter and block-index locality
// apply to the logical-key prefix, per spec.md §3/§4.3.
func cfOptions(col schema.Column) *grocksdb.Options {
	opts := grocksdb.NewDefaultOptions()
	if n := schema.PrefixLen(col); n > 0 {
		opts.SetPrefixExtractor(grocksdb.NewFixedPrefixTransform(n))
		bbto := grocksdb.NewDefaultBlockBasedTableOptions()
		bbto.SetFilterPolicy(grocksdb.NewBloomFilter(10))
		bbto.SetWholeKeyFiltering(false)
		opts.SetBlockBasedTableFactory(bbto)
	}
	return opts
}

// descriptors returns one ColumnFamilyDescriptor per declared schema column,
// in schema.All order. RocksDB requires the "default" family to exist too;
// callers prepend it separately since it is not part of our logical schema.
func descriptors() ([]string, []*grocksdb.Options) {
	names := make([]string, 0, len(schema.All))
	opts := make([]*grocksdb.Options, 0, len(schema.All))
	for _, c := range schema.All {
		names = append(names, schema.Name(c))
		opts = append(opts, cfOptions(c))
	}
	return names, opts
}
