package importer

import (
	"strings"

	capture "gd-invoice/internal/capture/domain"
	tariff "gd-invoice/internal/tariff/domain"
)

// Header targets share the alias table with the numeric draft keys.
const (
	targetUnitID         = "header.unit_id"
	targetDistributor    = "header.distributor"
	targetGroup          = "header.group"
	targetModality       = "header.modality"
	targetReferenceMonth = "header.reference_month"
	targetProtocolDate   = "header.protocol_date"
	targetAlertColor     = "header.alert_color"
)

var periodAliases = map[tariff.Period][]string{
	tariff.PeriodPeak:         {"ponta", "p", "peak", "hp"},
	tariff.PeriodOffPeak:      {"fora ponta", "fora de ponta", "fp", "hfp", "off peak", "offpeak"},
	tariff.PeriodIntermediate: {"intermediario", "int", "intermediate"},
	tariff.PeriodReserved:     {"reservado", "horario reservado", "hr", "reserved"},
	tariff.PeriodSingle:       {"unico", "total", "single"},
}

var periodMeasures = map[string][]string{
	capture.KeyConsumption:      {"consumo", "consumo ativo", "energia ativa", "consumption"},
	capture.KeySelfConsumed:     {"autoconsumo", "consumo instantaneo", "self consumed", "self consumption"},
	capture.KeyInjected:         {"injecao", "energia injetada", "injetada", "injected"},
	capture.KeyEnergyRate:       {"te", "tarifa te", "tarifa energia", "energy rate"},
	capture.KeyNetworkUsageRate: {"tusd", "tarifa tusd", "network usage rate"},
	capture.KeyWiresARate:       {"tusd fio a", "fio a", "wires a"},
	capture.KeyWiresBRate:       {"tusd fio b", "fio b", "wires b"},
	capture.KeySectorChargeRate: {"encargos", "encargos setoriais", "tusd encargos", "sector charges"},
}

// Measures without a period suffix refer to the single period.
var bareMeasures = []string{
	capture.KeyConsumption,
	capture.KeySelfConsumed,
	capture.KeyInjected,
	capture.KeyEnergyRate,
	capture.KeyNetworkUsageRate,
}

var scalarAliases = map[string][]string{
	capture.KeyContractedDemand: {"demanda contratada", "contracted demand"},
	capture.KeyMeasuredDemand:   {"demanda medida", "demanda registrada", "demanda", "measured demand"},
	capture.KeyGeneration:       {"geracao", "energia gerada", "generation"},
	capture.KeyRemoteCredits:    {"creditos recebidos", "creditos remotos", "energia compensada remota", "remote credits"},
	capture.KeyReactivePenalty:  {"energia reativa", "reativo excedente", "excedente reativo", "ufer", "reactive penalty"},
	capture.KeyPublicLighting:   {"iluminacao publica", "contribuicao iluminacao publica", "cip", "cosip", "public lighting"},
	capture.KeyDeclaredTotal:    {"total a pagar", "valor a pagar", "valor total", "total fatura", "declared total"},
	capture.KeyDemandRate:       {"tarifa demanda", "demand rate"},
	capture.KeyDemandOverage:    {"tarifa ultrapassagem", "tarifa demanda ultrapassagem", "demand overage rate"},
	capture.KeyAlertRate:        {"tarifa bandeira", "adicional bandeira", "alert rate"},
	capture.KeyPIS:              {"pis", "aliquota pis", "pis pasep"},
	capture.KeyCOFINS:           {"cofins", "aliquota cofins"},
	capture.KeyICMS:             {"icms", "aliquota icms"},

	targetUnitID:         {"unidade consumidora", "uc", "instalacao", "numero instalacao", "unit id"},
	targetDistributor:    {"distribuidora", "concessionaria", "distributor"},
	targetGroup:          {"grupo", "grupo tarifario", "subgrupo", "group"},
	targetModality:       {"modalidade", "modalidade tarifaria", "modality"},
	targetReferenceMonth: {"mes referencia", "mes de referencia", "referencia", "competencia", "reference month"},
	targetProtocolDate:   {"data protocolo", "data de protocolo", "protocolo", "protocol date"},
	targetAlertColor:     {"bandeira", "bandeira tarifaria", "alert color"},
}

var aliases = buildAliases()

func buildAliases() map[string]string {
	out := make(map[string]string)
	for measure, names := range periodMeasures {
		for p, suffixes := range periodAliases {
			for _, name := range names {
				for _, suffix := range suffixes {
					out[name+" "+suffix] = capture.PeriodKey(measure, p)
				}
			}
		}
	}
	for _, measure := range bareMeasures {
		for _, name := range periodMeasures[measure] {
			out[name] = capture.PeriodKey(measure, tariff.PeriodSingle)
		}
	}
	for target, names := range scalarAliases {
		for _, name := range names {
			out[name] = target
		}
	}
	return out
}

var accents = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "ô", "o", "õ", "o",
	"ú", "u", "ü", "u",
	"ç", "c",
)

// normalize lowercases, strips accents and collapses punctuation into single spaces.
func normalize(key string) string {
	key = accents.Replace(strings.ToLower(strings.TrimSpace(key)))
	var b strings.Builder
	space := false
	for _, r := range key {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.WriteRune(r)
			space = false
			continue
		}
		space = true
	}
	return b.String()
}

// lookup resolves a raw key to a target.
func lookup(key string) (string, bool) {
	target, ok := aliases[normalize(key)]
	return target, ok
}
