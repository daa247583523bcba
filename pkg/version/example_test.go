package version_test

import (
	"fmt"

	"github.com/kpmtools/kpm/pkg/version"
)

func ExampleSatisfies() {
	ok, _ := version.Satisfies("^1.2.3", "1.9.0")
	fmt.Println(ok)

	ok, _ = version.Satisfies("1.0.0 - 2.0.0", "2.0.1")
	fmt.Println(ok)
	// Output:
	// true
	// false
}

func ExampleParse() {
	_, err := version.Parse("!=1.0.0")
	fmt.Println(err)
	// Output: parse constraint "!=1.0.0": unrecognized operator
}
