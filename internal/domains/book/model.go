package book

// Book is the catalog entity, keyed by ISBN. One ISBN is one physical unit;
// Available mirrors the loan ledger and is mutated only by the lending
// engine's transactions, never directly by catalog callers.
type Book struct {
	ISBN      string `db:"isbn" json:"isbn"`
	Title     string `db:"title" json:"title"`
	Author    string `db:"author" json:"author"`
	Genre     string `db:"genre" json:"genre"`
	Available bool   `db:"available" json:"available"`
}
