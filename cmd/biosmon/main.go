package main

import (
	"flag"
	"log"
	"os"
	"reflect"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/robotalks/biosboot/pkg/diag"
)

var (
	mqttURL = "mqtt://localhost:1883/"
)

func init() {
	if val := os.Getenv("BIOS_MQTT"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	opts, prefix, err := diag.ClientOptionsFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	opts.SetOnConnectHandler(func(c paho.Client) {
		c.Subscribe(prefix+"bios/+/+", 0, func(c paho.Client, m paho.Message) {
			topic := m.Topic()
			msg, err := diag.Decode(topic, m.Payload())
			if err != nil {
				log.Printf("%s: bad message: %v", topic, err)
				return
			}
			log.Printf("%s: [%s] %s", topic,
				reflect.Indirect(reflect.ValueOf(msg)).Type().Name(), msg.String())
		})
	})
	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalln(token.Error())
	}
	<-(chan struct{})(nil)
}
