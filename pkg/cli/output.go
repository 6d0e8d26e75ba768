package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"howett.net/plist"

	"github.com/dmdmdm-nz/netmond/internal/api"
	"github.com/dmdmdm-nz/netmond/internal/netmon"
)

// writeEncoded writes v as indented JSON or as an XML property list.
func writeEncoded(w io.Writer, format string, v any) error {
	if format == "plist" {
		enc := plist.NewEncoderForFormat(w, plist.XMLFormat)
		enc.Indent("\t")
		return enc.Encode(v)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeInterfaceTable(w io.Writer, ifaces []netmon.NetworkInterface) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tNAME\tTYPE\tSTATE\tMTU\tHWADDR\tADDRESSES")
	for _, iface := range ifaces {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			iface.Index,
			orDash(iface.Name),
			iface.Type,
			iface.State,
			iface.MTU,
			orDash(iface.HardwareAddr.String()),
			orDash(joinAddresses(iface.Addresses)))
	}
	return tw.Flush()
}

func writeInterfaceDetail(w io.Writer, iface netmon.NetworkInterface) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "Name:\t%s\n", iface.Name)
	fmt.Fprintf(tw, "Index:\t%d\n", iface.Index)
	fmt.Fprintf(tw, "Type:\t%s\n", iface.Type)
	fmt.Fprintf(tw, "State:\t%s\n", iface.State)
	fmt.Fprintf(tw, "Flags:\t%s\n", iface.Flags)
	fmt.Fprintf(tw, "MTU:\t%d\n", iface.MTU)
	fmt.Fprintf(tw, "Hardware address:\t%s\n", orDash(iface.HardwareAddr.String()))
	if len(iface.Addresses) == 0 {
		fmt.Fprintf(tw, "Addresses:\t-\n")
	}
	for i, a := range iface.Addresses {
		label := ""
		if i == 0 {
			label = "Addresses:"
		}
		fmt.Fprintf(tw, "%s\t%s scope %s\n", label, a, a.Scope)
	}
	return tw.Flush()
}

func writeEvent(w io.Writer, ev netmon.InterfaceEvent, asJSON bool) error {
	if asJSON {
		return json.NewEncoder(w).Encode(api.NewEventInfo(ev))
	}
	line := strings.TrimRight(fmt.Sprintf("%-22s %s", ev.Type, describeEvent(ev)), " ")
	_, err := fmt.Fprintln(w, eventColor(ev.Type)("%s", line))
	return err
}

func describeEvent(ev netmon.InterfaceEvent) string {
	name := ev.InterfaceName
	if name == "" && ev.Index != 0 {
		name = fmt.Sprintf("#%d", ev.Index)
	}
	switch ev.Type {
	case netmon.InterfaceAdded:
		return fmt.Sprintf("%s (index %d, %s)", name, ev.Index, ev.Interface.State)
	case netmon.InterfaceRemoved:
		return fmt.Sprintf("%s (index %d)", name, ev.Index)
	case netmon.StateChanged:
		return fmt.Sprintf("%s %s -> %s", name, ev.OldState, ev.Interface.State)
	case netmon.MTUChanged:
		return fmt.Sprintf("%s %d -> %d", name, ev.OldMTU, ev.Interface.MTU)
	case netmon.AddressAdded, netmon.AddressRemoved:
		return fmt.Sprintf("%s %s", name, ev.Address)
	default:
		return ""
	}
}

func eventColor(t netmon.EventType) func(format string, a ...interface{}) string {
	switch t {
	case netmon.InterfaceAdded, netmon.AddressAdded:
		return color.GreenString
	case netmon.InterfaceRemoved, netmon.AddressRemoved:
		return color.RedString
	case netmon.StateChanged, netmon.MTUChanged:
		return color.YellowString
	default:
		return fmt.Sprintf
	}
}

func joinAddresses(addrs []netmon.Address) string {
	s := make([]string, 0, len(addrs))
	for _, a := range addrs {
		s = append(s, a.String())
	}
	return strings.Join(s, ",")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
