package pins

import "extio-go/bus"

func T(tokens ...bus.Token) bus.Topic { return bus.T(tokens...) }

func topicConfigPins() bus.Topic { return T("config", "pins") }

func topicState() bus.Topic { return T("pins", "state") }

// pins/element/<id>/info
func TopicElementInfo(id string) bus.Topic { return T("pins", "element", id, "info") }

// pins/<n>/control/<verb>
func TopicControl(pin int, verb string) bus.Topic { return T("pins", pin, "control", verb) }

// pins/+/control/+
func ctrlWildcard() bus.Topic { return T("pins", "+", "control", "+") }
