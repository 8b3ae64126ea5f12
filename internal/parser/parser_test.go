package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("Comma Delimited", func(t *testing.T) {
		content := []byte("from_account,to_account,amount\n111,222,50000\n333,444,1200\n")

		table, err := Parse("transfers.csv", content)
		require.NoError(t, err)

		assert.Equal(t, []string{"from_account", "to_account", "amount"}, table.Headers)
		require.Len(t, table.Records, 2)
		assert.Equal(t, "111", table.Records[0]["from_account"])
		assert.Equal(t, "50000", table.Records[0]["amount"])
	})

	t.Run("Semicolon Delimited", func(t *testing.T) {
		content := []byte("from_number;to_number;duration\n0812345678;0898765432;120\n")

		table, err := Parse("calls.csv", content)
		require.NoError(t, err)

		assert.Equal(t, []string{"from_number", "to_number", "duration"}, table.Headers)
		require.Len(t, table.Records, 1)
		assert.Equal(t, "120", table.Records[0]["duration"])
	})

	t.Run("Tab Delimited", func(t *testing.T) {
		content := []byte("from_wallet\tto_wallet\tamount\n0xabc\t0xdef\t2.5\n")

		table, err := Parse("crypto.tsv", content)
		require.NoError(t, err)

		assert.Equal(t, []string{"from_wallet", "to_wallet", "amount"}, table.Headers)
		assert.Equal(t, "0xabc", table.Records[0]["from_wallet"])
	})

	t.Run("Pipe Delimited", func(t *testing.T) {
		content := []byte("first_name|last_name\nSomchai|Jaidee\n")

		table, err := Parse("persons.txt", content)
		require.NoError(t, err)

		assert.Equal(t, "Somchai", table.Records[0]["first_name"])
	})

	t.Run("Strips UTF8 BOM", func(t *testing.T) {
		content := []byte("\xef\xbb\xbfname,amount\nA,1\n")

		table, err := Parse("bom.csv", content)
		require.NoError(t, err)

		assert.Equal(t, "name", table.Headers[0])
	})

	t.Run("Ragged Rows Are Padded", func(t *testing.T) {
		content := []byte("a,b,c\n1,2\n")

		table, err := Parse("ragged.csv", content)
		require.NoError(t, err)

		require.Len(t, table.Records, 1)
		assert.Equal(t, "2", table.Records[0]["b"])
		assert.Equal(t, "", table.Records[0]["c"])
	})

	t.Run("Trims Cell Whitespace", func(t *testing.T) {
		content := []byte("a,b\n 1 , 2 \n")

		table, err := Parse("spaced.csv", content)
		require.NoError(t, err)

		assert.Equal(t, "1", table.Records[0]["a"])
		assert.Equal(t, "2", table.Records[0]["b"])
	})

	t.Run("Header Only File Has Zero Records", func(t *testing.T) {
		table, err := Parse("empty.csv", []byte("a,b,c\n"))
		require.NoError(t, err)

		assert.Empty(t, table.Records)
	})

	t.Run("Empty File Is A Parse Error", func(t *testing.T) {
		_, err := Parse("empty.csv", []byte("   \n  "))
		require.Error(t, err)

		assert.True(t, IsParseError(err))
		assert.Contains(t, err.Error(), "empty.csv")
	})

	t.Run("Malformed Quoting Is A Parse Error", func(t *testing.T) {
		_, err := Parse("broken.csv", []byte("a,b\n\"unterminated,1\n"))
		require.Error(t, err)

		assert.True(t, IsParseError(err))
	})
}

func TestDetectDelimiter(t *testing.T) {
	t.Run("Most Frequent Wins", func(t *testing.T) {
		assert.Equal(t, ';', detectDelimiter("a;b;c,d"))
		assert.Equal(t, ',', detectDelimiter("a,b,c"))
		assert.Equal(t, '|', detectDelimiter("a|b|c|d"))
	})

	t.Run("Comma Wins Ties", func(t *testing.T) {
		assert.Equal(t, ',', detectDelimiter("a,b;c"))
	})

	t.Run("Only Header Line Is Inspected", func(t *testing.T) {
		assert.Equal(t, ',', detectDelimiter("a,b\n1;2;3;4;5"))
	})
}
