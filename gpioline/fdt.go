package gpioline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/platinasystems/fdt"
	"github.com/platinasystems/gpio"
)

// PinsFromDeviceTree looks up two named pins in a flattened device tree
// blob and returns them as SCL and SDA lines. The walk follows the usual
// platform layout: the aliases node names the gpio controllers, each
// controller's children carry a gpio-pin-desc with the pin name and index.
func PinsFromDeviceTree(dtb []byte, sclName, sdaName string) (scl, sda *Line, err error) {
	pins := PinMapFromDeviceTree(dtb)
	sclPin, ok := pins[sclName]
	if !ok {
		return nil, nil, fmt.Errorf("gpioline: no pin named %q in device tree", sclName)
	}
	sdaPin, ok := pins[sdaName]
	if !ok {
		return nil, nil, fmt.Errorf("gpioline: no pin named %q in device tree", sdaName)
	}
	return New(sclPin), New(sdaPin), nil
}

// PinMapFromDeviceTree builds the machine's named pin map from a
// flattened device tree blob.
func PinMapFromDeviceTree(dtb []byte) gpio.PinMap {
	t := &fdt.Tree{}
	t.Parse(dtb)

	aliases := make(gpio.GpioAliasMap)
	pins := make(gpio.PinMap)

	t.MatchNode("aliases", func(n *fdt.Node) {
		for p, pn := range n.Properties {
			if strings.Contains(p, "gpio") {
				val := strings.Split(string(pn), "\x00")
				v := strings.Split(val[0], "/")
				aliases[p] = v[len(v)-1]
			}
		}
	})

	t.EachProperty("gpio-controller", "", func(n *fdt.Node, name, value string) {
		for bank, alias := range aliases {
			if alias != n.Name {
				continue
			}
			for _, c := range n.Children {
				var desc []string
				var mode string
				for p := range c.Properties {
					switch p {
					case "gpio-pin-desc":
						desc = strings.Split(c.Name, "@")
					case "output-high", "output-low", "input":
						mode = p
					}
				}
				if mode == "" || len(desc) != 2 {
					continue
				}
				i, err := strconv.Atoi(desc[1])
				if err != nil {
					continue
				}
				pins[desc[0]] = gpio.GpioPinMode[mode] | gpio.GpioBankToBase[bank] | gpio.Pin(i)
			}
		}
	})

	return pins
}
