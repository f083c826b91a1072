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

package cds

import (
	"fmt"

	"github.com/lnashier/viper"
)

// ReadRC reads the API endpoint and key from a data store credentials
// file, which is in the YAML format of ~/.cdsapirc:
//
//	url: https://ads.atmosphere.copernicus.eu/api
//	key: <personal access token>
func ReadRC(path string) (url, key string, err error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return "", "", fmt.Errorf("cds: reading credentials: %v", err)
	}
	url, key = v.GetString("url"), v.GetString("key")
	if url == "" || key == "" {
		return "", "", fmt.Errorf("cds: %s must set both url and key", path)
	}
	return url, key, nil
}
