package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// TitanicCSV is a slice of the Titanic passenger list with missing ages,
// a missing port of embarkation, a duplicated passenger and a fare outlier.
const TitanicCSV = `PassengerId,Survived,Pclass,Name,Sex,Age,Fare,Embarked
1,0,3,"Braund, Mr. Owen Harris",male,22,7.25,S
2,1,1,"Cumings, Mrs. John Bradley",female,38,71.2833,C
3,1,3,"Heikkinen, Miss. Laina",female,26,7.925,S
4,1,1,"Futrelle, Mrs. Jacques Heath",female,35,53.1,S
5,0,3,"Allen, Mr. William Henry",male,NA,8.05,S
5,0,3,"Allen, Mr. William Henry",male,NA,8.05,S
6,0,3,"Moran, Mr. James",male,,8.4583,Q
7,0,1,"McCarthy, Mr. Timothy J",male,54,51.8625,
8,1,1,"Ward, Miss. Anna",female,35,512.3292,C
`

// RetailCSV is a few invoice lines in the layout of the UCI online retail
// dataset.
const RetailCSV = `InvoiceNo,StockCode,Description,Quantity,InvoiceDate,UnitPrice,CustomerID,Country
536365,85123A,WHITE HANGING HEART T-LIGHT HOLDER,6,2010-12-01 08:26,2.55,17850,United Kingdom
536365,71053,WHITE METAL LANTERN,6,2010-12-01 08:26,3.39,17850,United Kingdom
536366,22633,HAND WARMER UNION JACK,6,2010-12-01 08:28,1.85,17850,United Kingdom
536367,84879,ASSORTED COLOUR BIRD ORNAMENT,32,2010-12-01 08:34,1.69,13047,France
C536379,D,Discount,-1,2010-12-01 09:41,27.5,14527,France
536370,22728,ALARM CLOCK BAKELIKE PINK,24,2010-12-01 08:45,3.75,,Germany
`

// NetflixCSV has multi-valued country and genre columns.
const NetflixCSV = `show_id,type,title,country,date_added,release_year,listed_in
s1,Movie,Dick Johnson Is Dead,United States,2021-09-25,2020,Documentaries
s2,TV Show,Blood & Water,South Africa,2021-09-24,2021,"International TV Shows, TV Dramas"
s3,TV Show,Ganglands,,2021-09-24,2021,"Crime TV Shows, International TV Shows"
s4,Movie,Sankofa,"United States, Ghana, Burkina Faso",2021-09-24,1993,"Dramas, Independent Movies"
`

// WriteFile writes content to name inside a fresh temporary directory and
// returns the full path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", name, err)
	}
	return path
}
