package detect

import (
	"fmt"

	"github.com/dfalkner/meetcoach/internal/events"
)

// Alert copy lives here so detectors stay about thresholds. Messages are
// pt-BR, matching the product surface.

// emotionLabels maps the model's emotion names to the words used in messages.
var emotionLabels = map[string]string{
	"interest": "interesse", "joy": "alegria", "determination": "determinação",
	"enthusiasm": "entusiasmo", "excitement": "empolgação", "ecstasy": "êxtase",
	"triumph": "triunfo", "awe": "admiração", "admiration": "admiração",
	"amusement": "descontração", "entrancement": "fascínio",
	"anger": "irritação", "rage": "raiva", "contempt": "desprezo",
	"disgust": "aversão", "fear": "medo", "anxiety": "ansiedade",
	"distress": "aflição", "horror": "pavor", "sadness": "tristeza",
	"disappointment": "decepção", "grief": "pesar", "despair": "desânimo",
	"boredom": "tédio", "tiredness": "cansaço", "confusion": "confusão",
	"doubt": "dúvida", "calmness": "calma", "contentment": "satisfação",
	"relief": "alívio", "love": "afeto", "sympathy": "empatia",
	"gratitude": "gratidão", "adoration": "apreço",
}

func emotionLabel(name string) string {
	if l, ok := emotionLabels[name]; ok {
		return l
	}
	return name
}

type message struct {
	text string
	tips []string
}

func hostilityMessage(name string, sev events.Severity) message {
	m := message{
		text: fmt.Sprintf("%s está demonstrando sinais de hostilidade na fala.", name),
		tips: []string{
			"Reduza o ritmo e valide a preocupação antes de responder.",
			"Evite rebater ponto a ponto; pergunte o que está incomodando.",
		},
	}
	if sev == events.SeverityCritical {
		m.text = fmt.Sprintf("%s está visivelmente irritado. Considere uma pausa.", name)
	}
	return m
}

func frustrationMessage(name string) message {
	return message{
		text: fmt.Sprintf("A frustração de %s parece estar crescendo.", name),
		tips: []string{
			"Confirme se o ponto anterior ficou claro antes de avançar.",
			"Dê espaço para a pessoa concluir o raciocínio.",
		},
	}
}

func sadnessMessage(name string) message {
	return message{
		text: fmt.Sprintf("%s soa desanimado nesta conversa.", name),
		tips: []string{"Traga a pessoa para a conversa com uma pergunta direta e leve."},
	}
}

func boredomMessage(name string) message {
	return message{
		text: fmt.Sprintf("%s parece estar perdendo o interesse.", name),
		tips: []string{
			"Mude o formato: faça uma pergunta ou mostre algo visual.",
			"Encurte o bloco atual e vá direto ao ponto.",
		},
	}
}

func confusionMessage(name string) message {
	return message{
		text: fmt.Sprintf("%s aparenta confusão com o que foi dito.", name),
		tips: []string{"Reexplique o último ponto com um exemplo concreto."},
	}
}

func engagementMessage(name, emotion string, conflicted bool) message {
	m := message{
		text: fmt.Sprintf("%s está demonstrando %s. Bom momento para avançar.", name, emotionLabel(emotion)),
		tips: []string{"Aproveite o engajamento para propor o próximo passo."},
	}
	if conflicted {
		m.text = fmt.Sprintf("%s voltou a demonstrar %s após um momento tenso.", name, emotionLabel(emotion))
		m.tips = []string{"O clima melhorou, mas retome o ponto sensível com cuidado."}
	}
	return m
}

func serenityMessage(name string) message {
	return message{
		text: fmt.Sprintf("%s está tranquilo e receptivo.", name),
		tips: []string{"Clima estável: bom momento para tratar temas delicados."},
	}
}

func connectionMessage(name string) message {
	return message{
		text: fmt.Sprintf("Há sinais de conexão positiva com %s.", name),
		tips: []string{"Reforce o vínculo citando algo que a pessoa trouxe."},
	}
}

func mentalStateMessage(name, emotion string) message {
	return message{
		text: fmt.Sprintf("Sinal emocional forte em %s: %s.", name, emotionLabel(emotion)),
		tips: []string{"Observe como a pessoa reage nos próximos minutos."},
	}
}

func frustrationTrendMessage(name string) message {
	return message{
		text: fmt.Sprintf("O tom de %s vem mudando: a tensão está subindo aos poucos.", name),
		tips: []string{"Faça um checkpoint: pergunte se o caminho faz sentido até aqui."},
	}
}

func postInterruptionMessage(name string) message {
	return message{
		text: fmt.Sprintf("%s ficou mais negativo depois de ser interrompido.", name),
		tips: []string{
			"Devolva a palavra: \"você estava dizendo algo importante\".",
		},
	}
}

func polarizationMessage() message {
	return message{
		text: "O grupo está polarizado: há participantes claramente positivos e outros claramente negativos.",
		tips: []string{"Nomeie a divergência e peça que cada lado resuma sua posição."},
	}
}

func volumeMessage(t events.FeedbackType, name string, sev events.Severity) message {
	if t == events.TypeVolumeLow {
		m := message{
			text: fmt.Sprintf("O volume de %s está baixo.", name),
			tips: []string{"Verifique o microfone ou peça para a pessoa se aproximar."},
		}
		if sev == events.SeverityCritical {
			m.text = fmt.Sprintf("Quase não dá para ouvir %s.", name)
		}
		return m
	}
	m := message{
		text: fmt.Sprintf("O volume de %s está alto.", name),
		tips: []string{"Pode haver ruído ou ganho excessivo no microfone."},
	}
	if sev == events.SeverityCritical {
		m.text = fmt.Sprintf("O áudio de %s está estourando.", name)
	}
	return m
}

func monotonyMessage(name string) message {
	return message{
		text: fmt.Sprintf("A fala de %s está monótona há algum tempo.", name),
		tips: []string{
			"Varie o ritmo e a entonação para segurar a atenção.",
			"Intercale perguntas para quebrar o bloco de fala.",
		},
	}
}

func paceMessage(t events.FeedbackType, name string) message {
	if t == events.TypePaceAccelerated {
		return message{
			text: fmt.Sprintf("%s está falando muito rápido, com trocas constantes.", name),
			tips: []string{"Respire entre os pontos; dê tempo para absorção."},
		}
	}
	return message{
		text: fmt.Sprintf("Há pausas longas na fala de %s.", name),
		tips: []string{"Cheque se a pessoa ainda está acompanhando."},
	}
}

func arousalMessage(t events.FeedbackType, name string) message {
	if t == events.TypeArousalLow {
		return message{
			text: fmt.Sprintf("A energia de %s está caindo.", name),
			tips: []string{"Traga a pessoa de volta com uma pergunta direta."},
		}
	}
	return message{
		text: fmt.Sprintf("%s está muito agitado.", name),
		tips: []string{"Desacelere a conversa e organize os próximos passos."},
	}
}

func valenceMessage(t events.FeedbackType, name string) message {
	switch t {
	case events.TypeTension:
		return message{
			text: fmt.Sprintf("%s soa tenso e negativo.", name),
			tips: []string{"Reconheça a tensão e proponha tratar o ponto com calma."},
		}
	case events.TypeLowEnergy:
		return message{
			text: fmt.Sprintf("%s soa desanimado e sem energia.", name),
			tips: []string{"Encurte o bloco atual e envolva a pessoa com algo prático."},
		}
	default:
		return message{
			text: fmt.Sprintf("O tom de %s está negativo.", name),
			tips: []string{"Procure entender o que não está agradando."},
		}
	}
}

func groupEnergyMessage() message {
	return message{
		text: "A energia do grupo está baixa.",
		tips: []string{
			"Faça uma pergunta aberta para reativar a participação.",
			"Considere uma pausa curta se a reunião já está longa.",
		},
	}
}

func silenceMessage(name string) message {
	return message{
		text: fmt.Sprintf("%s está em silêncio há bastante tempo.", name),
		tips: []string{fmt.Sprintf("Convide %s a opinar sobre o ponto atual.", name)},
	}
}

func overlapMessage() message {
	return message{
		text: "Várias pessoas estão falando ao mesmo tempo.",
		tips: []string{"Organize a vez de fala: uma pessoa de cada vez."},
	}
}

func interruptionMessage() message {
	return message{
		text: "As interrupções estão frequentes nesta reunião.",
		tips: []string{"Estabeleça turnos de fala e garanta que cada um conclua."},
	}
}
