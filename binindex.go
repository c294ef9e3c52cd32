package ras

import (
	"fmt"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"
)

// ChromosomeSpan conforms to a per-chromosome aggregate over the SQLite table
// "Variant" of a BGEN index (.bgi) file, and can be easily parsed with sqlx.
type ChromosomeSpan struct {
	Chromosome    string
	FirstPosition uint32 `db:"first_position"`
	LastPosition  uint32 `db:"last_position"`
	NVariants     int    `db:"n_variants"`
}

// Length is the span covered by the chromosome's variants, in base pairs.
func (c ChromosomeSpan) Length() int {
	return int(c.LastPosition) - int(c.FirstPosition) + 1
}

const chromosomeSpanQuery = `SELECT chromosome AS chromosome,
	MIN(position) AS first_position,
	MAX(position) AS last_position,
	COUNT(*) AS n_variants
FROM Variant
GROUP BY chromosome
ORDER BY chromosome`

// BGIIndex is an open BGEN index.
type BGIIndex struct {
	DB *sqlx.DB
}

func (b *BGIIndex) Close() error {
	return b.DB.Close()
}

// OpenBGI opens the SQLite BGEN index located at path with whichever driver
// this binary was built with.
func OpenBGI(path string) (*BGIIndex, error) {
	// URI filenames have to begin with 'file:'; see
	// https://www.sqlite.org/c3ref/open.html . It seems that sqlite3 permitted
	// URI filenames without the file: prefix, but that is not standard.
	if !strings.HasPrefix(path, "file:") {
		path = "file:" + path
	}

	db, err := sqlx.Connect(whichSQLiteDriver, path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	if err := configureConnection(db); err != nil {
		db.Close()
		return nil, pfx.Err(err)
	}

	return &BGIIndex{DB: db}, nil
}

// ChromosomeSpans lists the first and last indexed position of each
// chromosome.
func (b *BGIIndex) ChromosomeSpans() ([]ChromosomeSpan, error) {
	var spans []ChromosomeSpan
	if err := b.DB.Select(&spans, chromosomeSpanQuery); err != nil {
		return nil, pfx.Err(err)
	}
	return spans, nil
}

// ReadBGIBins uses the span of indexed variants on each chromosome of a BGEN
// index as that chromosome's bin length.
func ReadBGIBins(path string) (*BinTable, error) {
	bgi, err := OpenBGI(path)
	if err != nil {
		return nil, err
	}
	defer bgi.Close()

	spans, err := bgi.ChromosomeSpans()
	if err != nil {
		return nil, err
	}

	t := NewBinTable()
	for _, span := range spans {
		if err := t.Add(span.Chromosome, float64(span.Length())/BasesPerMegabase); err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
	}

	return t, nil
}
