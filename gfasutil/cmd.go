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

// Package gfasutil implements the gfas command-line interface.
package gfasutil

import (
	"context"
	"fmt"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/gfas"
	"github.com/spatialmodel/gfas/cds"
	"github.com/spatialmodel/gfas/transfer"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// Log is the logger used by the commands. Its output and level are set
// before each command runs.
var Log = logrus.New()

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	grid := gfas.DefaultGridConfig()
	processing := []*pflag.FlagSet{preprocessCmd.Flags(), combineCmd.Flags(), summaryCmd.Flags(), quicklookCmd.Flags()}

	// Options are the configuration options available to gfas.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "log-level",
			usage: `
              log-level is the minimum severity of log messages: one of
              debug, info, warning or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "variable-spec",
			usage: `
              variable-spec is the JSON (or, with a .toml extension, TOML)
              file listing the codes, long names and units of the variables
              to process.`,
			shorthand:  "v",
			defaultVal: "variable_spec.json",
			flagsets:   processing,
		},
		{
			name: "Grid.NLat",
			usage: `
              Grid.NLat is the number of latitude cells in the raw grid.`,
			defaultVal: grid.NLat,
			flagsets:   processing,
		},
		{
			name: "Grid.NLon",
			usage: `
              Grid.NLon is the number of longitude cells in the raw grid.`,
			defaultVal: grid.NLon,
			flagsets:   processing,
		},
		{
			name: "Grid.EpochOffsetHours",
			usage: `
              Grid.EpochOffsetHours is subtracted from raw times to convert
              them to hours since 1970-01-01.`,
			defaultVal: int(grid.EpochOffsetHours),
			flagsets:   processing,
		},
		{
			name: "Grid.FillValue",
			usage: `
              Grid.FillValue marks cells with no meaningful data in the
              injection height variables.`,
			defaultVal: float64(grid.FillValue),
			flagsets:   processing,
		},
		{
			name: "Grid.HeightPolicy",
			usage: `
              Grid.HeightPolicy selects how near-zero injection heights are
              detected where a fire is present. 'symmetric' zeroes heights
              between -1 and 1 m; 'onesided' zeroes heights below 1 m where
              the fire flux is above -1.`,
			defaultVal: grid.HeightPolicy.String(),
			flagsets:   processing,
		},
		{
			name: "Grid.FluxIndicator",
			usage: `
              Grid.FluxIndicator is the code of the flux variable used to
              detect whether a fire is present.`,
			defaultVal: grid.FluxIndicator,
			flagsets:   processing,
		},
		{
			name: "Grid.Institution",
			usage: `
              Grid.Institution is recorded in the history attribute of the
              output.`,
			defaultVal: grid.Institution,
			flagsets:   processing,
		},
		{
			name: "Download.URL",
			usage: `
              Download.URL is the data store API endpoint. If it or
              Download.Key is empty, both are read from Download.RCFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags()},
		},
		{
			name: "Download.Key",
			usage: `
              Download.Key is the data store personal access token.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags()},
		},
		{
			name: "Download.RCFile",
			usage: `
              Download.RCFile is the data store credentials file.`,
			defaultVal: "${HOME}/.cdsapirc",
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags()},
		},
		{
			name: "Download.Dataset",
			usage: `
              Download.Dataset is the name of the dataset to retrieve.`,
			defaultVal: cds.Dataset,
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags()},
		},
		{
			name: "Download.Variables",
			usage: `
              Download.Variables lists the data store names of the fields to
              retrieve.`,
			defaultVal: cds.Variables,
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags()},
		},
		{
			name: "Download.OutputDir",
			usage: `
              Download.OutputDir is the directory in which to store
              downloaded data files.`,
			shorthand:  "o",
			defaultVal: ".",
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags()},
		},
		{
			name: "Download.Split",
			usage: `
              Download.Split retrieves the month as two half-month files
              (days 1-15 and 16-end) for use with 'gfas combine'.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags()},
		},
		{
			name: "Download.Timeout",
			usage: `
              Download.Timeout is how long to wait for the data store to
              prepare each file, e.g. '12h'.`,
			defaultVal: "24h",
			flagsets:   []*pflag.FlagSet{downloadCmd.Flags()},
		},
		{
			name: "Transfer.Destination",
			usage: `
              Transfer.Destination is the directory the processed file is
              uploaded to: an sftp://host[:port]/dir URL or a file://,
              gs:// or s3:// blob storage location.`,
			defaultVal: "sftp://webfiles.york.ac.uk:22/var/www/webfiles.york.ac.uk/WACL/GFAS/INCOMING",
			flagsets:   []*pflag.FlagSet{transferCmd.Flags()},
		},
		{
			name: "Transfer.User",
			usage: `
              Transfer.User is the account name for SFTP uploads.`,
			defaultVal: "chem631",
			flagsets:   []*pflag.FlagSet{transferCmd.Flags()},
		},
		{
			name: "Transfer.KeyFile",
			usage: `
              Transfer.KeyFile is the private key used for SFTP uploads.`,
			defaultVal: "${HOME}/.ssh/id_rsa",
			flagsets:   []*pflag.FlagSet{transferCmd.Flags()},
		},
		{
			name: "Transfer.KnownHosts",
			usage: `
              Transfer.KnownHosts is the known_hosts file used to verify the
              SFTP server. If empty, the server is not verified.`,
			defaultVal: "${HOME}/.ssh/known_hosts",
			flagsets:   []*pflag.FlagSet{transferCmd.Flags()},
		},
		{
			name: "Transfer.URLPrefix",
			usage: `
              Transfer.URLPrefix is the public address of the upload
              directory, used in the notification message.`,
			defaultVal: "https://webfiles.york.ac.uk/WACL/GFAS/INCOMING/",
			flagsets:   []*pflag.FlagSet{transferCmd.Flags()},
		},
		{
			name: "Transfer.SMTPServer",
			usage: `
              Transfer.SMTPServer is the host:port of the mail server used to
              send the notification.`,
			defaultVal: "localhost:25",
			flagsets:   []*pflag.FlagSet{transferCmd.Flags()},
		},
		{
			name: "Transfer.From",
			usage: `
              Transfer.From is the sender of the notification.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{transferCmd.Flags()},
		},
		{
			name: "Transfer.Recipients",
			usage: `
              Transfer.Recipients are the addresses the notification is sent
              to. If empty, no notification is sent.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{transferCmd.Flags()},
		},
		{
			name: "Quicklook.Step",
			usage: `
              Quicklook.Step is the index of the time step to draw.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{quicklookCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("GFAS")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(preprocessCmd)
	Root.AddCommand(combineCmd)
	Root.AddCommand(downloadCmd)
	Root.AddCommand(transferCmd)
	Root.AddCommand(summaryCmd)
	Root.AddCommand(quicklookCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func setConfig(cmd *cobra.Command) error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(expandEnv(cfgpath))
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("gfas: problem reading configuration file: %v", err)
		}
	}
	return setLogger(Log, cmd.OutOrStderr(), Cfg.GetString("log-level"))
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "gfas",
	Short: "A preprocessor for CAMS GFAS fire emissions.",
	Long: `gfas downloads CAMS Global Fire Assimilation System (GFAS) data,
converts it into a standardized monthly netCDF grid, and publishes the result.
Use the subcommands specified below to access the functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'GFAS_var' where 'var' is the
name of the variable to be set, with dots replaced by underscores
(for example GFAS_GRID_HEIGHTPOLICY). Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	SilenceErrors:     true, // main prints them
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error { return setConfig(cmd) },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of gfas.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("gfas v%s\n", gfas.Version)
	},
	DisableAutoGenTag: true,
}

var preprocessCmd = &cobra.Command{
	Use:   "preprocess RAW OUTPUT",
	Short: "Preprocess a monthly raw file",
	Long: `preprocess converts a raw GFAS file covering a whole month into the
standardized output grid: latitude is reversed, times are converted to hours
since 1970, padding values are replaced, and injection heights are masked where
there is no fire.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := runner()
		if err != nil {
			return err
		}
		in, err := checkInputFile(args[0])
		if err != nil {
			return err
		}
		out, err := checkOutputFile(args[1])
		if err != nil {
			return err
		}
		return r.Preprocess(context.Background(), in, out)
	},
	DisableAutoGenTag: true,
}

var combineCmd = &cobra.Command{
	Use:   "combine FIRST SECOND OUTPUT",
	Short: "Preprocess and combine two half-month raw files",
	Long: `combine preprocesses two raw GFAS files that each cover part of a month
and concatenates them along time into a single output grid. FIRST must
precede SECOND in time. The time dimension of the output is unlimited.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := runner()
		if err != nil {
			return err
		}
		first, err := checkInputFile(args[0])
		if err != nil {
			return err
		}
		second, err := checkInputFile(args[1])
		if err != nil {
			return err
		}
		out, err := checkOutputFile(args[2])
		if err != nil {
			return err
		}
		return r.Combine(context.Background(), first, second, out)
	},
	DisableAutoGenTag: true,
}

var downloadCmd = &cobra.Command{
	Use:   "download YYYY-MM",
	Short: "Download a month of raw data",
	Long: `download retrieves a month of raw GFAS data from the Copernicus
Atmosphere Data Store and saves it as GFAS_RAW_<year>_<month>.nc in
Download.OutputDir, or as GFAS_RAW_<year>_<month>_a.nc and _b.nc if
Download.Split is set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		year, month, err := cds.ParseMonth(args[0])
		if err != nil {
			return err
		}
		c, err := cdsClient()
		if err != nil {
			return err
		}
		dir, err := checkOutputDir(Cfg.GetString("Download.OutputDir"))
		if err != nil {
			return err
		}
		files, err := Download(context.Background(), c, Cfg.GetString("Download.Dataset"),
			year, month, Cfg.GetStringSlice("Download.Variables"), dir, Cfg.GetBool("Download.Split"))
		if err != nil {
			return err
		}
		for _, f := range files {
			cmd.Println(f)
		}
		return nil
	},
	DisableAutoGenTag: true,
}

var transferCmd = &cobra.Command{
	Use:   "transfer FILE",
	Short: "Upload a processed file and announce it",
	Long: `transfer uploads a processed GFAS file to Transfer.Destination and, if
Transfer.Recipients is set, e-mails them its download address.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := checkInputFile(args[0])
		if err != nil {
			return err
		}
		u := &transfer.Uploader{
			SFTP: transfer.SFTPOptions{
				User:       Cfg.GetString("Transfer.User"),
				KeyFile:    expandEnv(Cfg.GetString("Transfer.KeyFile")),
				KnownHosts: expandEnv(Cfg.GetString("Transfer.KnownHosts")),
			},
			Log: Log,
		}
		url, err := Transfer(context.Background(), u, file, transferConfig())
		if err != nil {
			return err
		}
		cmd.Println(url)
		return nil
	},
	DisableAutoGenTag: true,
}

var summaryCmd = &cobra.Command{
	Use:   "summary FILE OUTPUT",
	Short: "Summarize a processed file",
	Long: `summary counts the fire cells of each variable of a processed GFAS file
and saves the counts, with the range and mean of the fire cell values, to the
spreadsheet OUTPUT.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := runner()
		if err != nil {
			return err
		}
		in, err := checkInputFile(args[0])
		if err != nil {
			return err
		}
		out, err := checkOutputFile(args[1])
		if err != nil {
			return err
		}
		return Summary(r, in, out)
	},
	DisableAutoGenTag: true,
}

var quicklookCmd = &cobra.Command{
	Use:   "quicklook FILE VARIABLE OUTPUT",
	Short: "Draw a map of one variable",
	Long: `quicklook draws a map of VARIABLE from a processed GFAS file at the
time step given by Quicklook.Step and saves it to OUTPUT, whose extension
(png, jpg or svg) selects the image format. Cells without fire are left blank.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := runner()
		if err != nil {
			return err
		}
		in, err := checkInputFile(args[0])
		if err != nil {
			return err
		}
		out, err := checkOutputFile(args[2])
		if err != nil {
			return err
		}
		return Quicklook(r, in, args[1], Cfg.GetInt("Quicklook.Step"), out)
	},
	DisableAutoGenTag: true,
}
