package extractor

// Per-family element allow-lists. Only fields named here survive
// extraction; everything else the hub reports for an endpoint is dropped.

var alarmKeywords = newSet(
	"alarmMode", "alarmState", "alarmSOS",
	"zone1State", "zone2State", "zone3State", "zone4State",
	"zone5State", "zone6State", "zone7State", "zone8State",
	"gsmLevel", "inactiveProduct", "liveCheckRunning", "networkDefect",
	"unitAutoProtect", "unitBatteryDefect", "unackedEvent",
	"alarmTechnical", "systAutoProtect", "sysBatteryDefect",
	"zsystSupervisionDefect", "systOpenIssue", "systTechnicalDefect",
	"videoLinkDefect", "outTemperature",
)

var lightKeywords = newSet(
	"level", "onFavPos", "thermicDefect", "battDefect", "loadDefect",
	"cmdDefect", "onPresenceDetected", "onDusk",
)

var coverKeywords = newSet(
	"position", "onFavPos", "thermicDefect", "obstacleDefect",
	"intrusion", "battDefect",
)

var doorKeywords = newSet(
	"openState", "intrusionDetect",
)

var boilerKeywords = newSet(
	"thermicLevel", "delayThermicLevel", "temperature", "authorization",
	"hvacMode", "timeDelay", "tempoOn", "antifrostOn", "openingDetected",
	"presenceDetected", "absence", "loadSheddingOn", "setpoint",
	"delaySetpoint", "anticipCoeff", "outTemperature",
)

var switchKeywords = newSet(
	"thermicDefect",
)

// consoClasses maps energy-metering field names to their measurement
// class. Membership in this map doubles as the conso allow-list.
var consoClasses = map[string]string{
	"energyInstantTotElec":       "current",
	"energyInstantTotElec_Min":   "current",
	"energyInstantTotElec_Max":   "current",
	"energyScaleTotElec_Min":     "current",
	"energyScaleTotElec_Max":     "current",
	"energyInstantTotElecP":      "power",
	"energyInstantTotElec_P_Min": "power",
	"energyInstantTotElec_P_Max": "power",
	"energyScaleTotElec_P_Min":   "power",
	"energyScaleTotElec_P_Max":   "power",
	"energyInstantTi1P":          "power",
	"energyInstantTi1P_Min":      "power",
	"energyInstantTi1P_Max":      "power",
	"energyScaleTi1P_Min":        "power",
	"energyScaleTi1P_Max":        "power",
	"energyInstantTi1I":          "current",
	"energyInstantTi1I_Min":      "current",
	"energyInstantTi1I_Max":      "current",
	"energyScaleTi1I_Min":        "current",
	"energyScaleTi1I_Max":        "current",
	"energyTotIndexWatt":         "energy",
}

// consoUnits maps energy-metering field names to their unit of measurement.
var consoUnits = map[string]string{
	"energyInstantTotElec":       "A",
	"energyInstantTotElec_Min":   "A",
	"energyInstantTotElec_Max":   "A",
	"energyScaleTotElec_Min":     "A",
	"energyScaleTotElec_Max":     "A",
	"energyInstantTotElecP":      "W",
	"energyInstantTotElec_P_Min": "W",
	"energyInstantTotElec_P_Max": "W",
	"energyScaleTotElec_P_Min":   "W",
	"energyScaleTotElec_P_Max":   "W",
	"energyInstantTi1P":          "W",
	"energyInstantTi1P_Min":      "W",
	"energyInstantTi1P_Max":      "W",
	"energyScaleTi1P_Min":        "W",
	"energyScaleTi1P_Max":        "W",
	"energyInstantTi1I":          "A",
	"energyInstantTi1I_Min":      "A",
	"energyInstantTi1I_Max":      "A",
	"energyScaleTi1I_Min":        "A",
	"energyScaleTi1I_Max":        "A",
	"energyTotIndexWatt":         "Wh",
}

func newSet(names ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}
