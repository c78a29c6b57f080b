package constants

// Row store SQL templates. Table and column identifiers are substituted with
// fmt.Sprintf after being checked against the worksheet layouts; values always
// go through bind parameters. Every worksheet table carries a row_no column
// holding the sheet row order.
const (
	RowNoColumn = "row_no"

	SelectAllRows = `
	SELECT %s FROM %s ORDER BY row_no
	`

	SelectFirstRowNo = `
	SELECT row_no FROM %s WHERE %s = ? ORDER BY row_no LIMIT 1
	`

	UpdateCellByRowNo = `
	UPDATE %s SET %s = ? WHERE row_no = ?
	`
)
