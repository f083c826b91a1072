/*
Copyright © 2019 the gfas authors.
This file is part of gfas.

gfas is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

gfas is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with gfas.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command gfas downloads, preprocesses and publishes CAMS GFAS fire
// emissions data.
package main

import (
	"fmt"
	"os"

	"github.com/spatialmodel/gfas/gfasutil"
)

func main() {
	if err := gfasutil.Root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
