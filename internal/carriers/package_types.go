package carriers

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Package types accepted by the rating providers
const (
	PackagePallet   = "PALLET"
	PackageSkid     = "SKID"
	PackageCrate    = "CRATE"
	PackageBox      = "BOX"
	PackageCarton   = "CARTON"
	PackageDrum     = "DRUM"
	PackageBundle   = "BUNDLE"
	PackageRoll     = "ROLL"
	PackageBag      = "BAG"
	PackageTote     = "TOTE"
	PackagePieces   = "PIECES"
	PackageReel     = "REEL"
	PackageCase     = "CASE"
	PackageCylinder = "CYLINDER"
)

var packageTypeAliases = map[string]string{
	"PALLET": PackagePallet, "PALLETS": PackagePallet, "PLT": PackagePallet, "PLTS": PackagePallet,
	"SKID": PackageSkid, "SKIDS": PackageSkid, "SKD": PackageSkid,
	"CRATE": PackageCrate, "CRATES": PackageCrate, "CRT": PackageCrate,
	"BOX": PackageBox, "BOXES": PackageBox, "BX": PackageBox,
	"CARTON": PackageCarton, "CARTONS": PackageCarton, "CTN": PackageCarton,
	"DRUM": PackageDrum, "DRUMS": PackageDrum, "DRM": PackageDrum,
	"BUNDLE": PackageBundle, "BUNDLES": PackageBundle, "BDL": PackageBundle, "BNDL": PackageBundle,
	"ROLL": PackageRoll, "ROLLS": PackageRoll,
	"BAG": PackageBag, "BAGS": PackageBag,
	"TOTE": PackageTote, "TOTES": PackageTote,
	"PIECE": PackagePieces, "PIECES": PackagePieces, "PCS": PackagePieces, "PC": PackagePieces,
	"REEL": PackageReel, "REELS": PackageReel,
	"CASE": PackageCase, "CASES": PackageCase, "CS": PackageCase,
	"CYLINDER": PackageCylinder, "CYLINDERS": PackageCylinder, "CYL": PackageCylinder,
}

// NormalizePackageType maps user input onto the provider vocabulary.
// Empty input is a pallet; unknown input is a pallet with a warning.
func NormalizePackageType(value string, logger *logrus.Entry) string {
	key := strings.ToUpper(strings.TrimSpace(value))
	if key == "" {
		return PackagePallet
	}
	if normalized, ok := packageTypeAliases[key]; ok {
		return normalized
	}
	if logger != nil {
		logger.WithField("package_type", value).Warn("Unknown package type, defaulting to PALLET")
	}
	return PackagePallet
}
